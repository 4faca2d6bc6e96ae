package functions

// Library is a set of predicates written in Prolog. A session compiles its
// source into the builtin database, so user programs cannot redefine them.
type Library struct {
	// Name identifies the library in logs and errors.
	Name string
	// Source is the program text.
	Source string
}
