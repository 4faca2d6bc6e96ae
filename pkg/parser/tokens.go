package parser

// TokenType represents the type of a lexical token.
type TokenType uint8

const (
	// Special tokens
	TokenEOF TokenType = iota
	TokenError

	// Literals
	TokenName     // foo, 'quoted atom', +, =.., !, ;
	TokenVariable // X, _Foo, _
	TokenNumber   // 42, 3.14, 1.0e10
	TokenString   // "text"

	// Punctuation
	TokenParenOpen    // (
	TokenParenClose   // )
	TokenBracketOpen  // [
	TokenBracketClose // ]
	TokenComma        // ,
	TokenBar          // |
	TokenEnd          // . followed by layout or end of input
)

// String returns a string representation of the token type.
func (tt TokenType) String() string {
	switch tt {
	case TokenEOF:
		return "(eof)"
	case TokenError:
		return "(error)"
	case TokenName:
		return "(name)"
	case TokenVariable:
		return "(variable)"
	case TokenNumber:
		return "(number)"
	case TokenString:
		return "(string)"
	case TokenParenOpen:
		return "("
	case TokenParenClose:
		return ")"
	case TokenBracketOpen:
		return "["
	case TokenBracketClose:
		return "]"
	case TokenComma:
		return ","
	case TokenBar:
		return "|"
	case TokenEnd:
		return "(end)"
	default:
		return "(unknown)"
	}
}

// Token represents a lexical token in Prolog source text.
type Token struct {
	Type     TokenType // Type of the token
	Value    string    // Literal value of the token, unquoted for quoted atoms and strings
	Position int       // Starting position in the input string
	Layout   bool      // Whitespace or a comment precedes the token
	Quoted   bool      // The name was written between single quotes
}

// punctuation maps single-character punctuation to token types.
var punctuation = [...]TokenType{
	'(': TokenParenOpen,
	')': TokenParenClose,
	'[': TokenBracketOpen,
	']': TokenBracketClose,
	',': TokenComma,
	'|': TokenBar,
}

const punctuationCount = rune(len(punctuation))

// lookupPunctuation returns the token type for a punctuation rune.
// Returns 0 if the rune is not punctuation.
func lookupPunctuation(r rune) TokenType {
	if r < 0 || r >= punctuationCount {
		return 0
	}
	return punctuation[r]
}

// symbolChars are the characters that form symbolic atoms such as =.. or \==.
const symbolChars = `+-*/\^<>=~:.?@#&$`

func isSymbolChar(r rune) bool {
	for _, s := range symbolChars {
		if r == s {
			return true
		}
	}
	return false
}

// isSolo reports single-character atoms that never combine with neighbours.
func isSolo(r rune) bool {
	return r == '!' || r == ';'
}
