// Command prolog runs Prolog programs and provides an interactive top level.
//
// Usage:
//
//	prolog run [-q query] [-all] [-debug] [-max-steps N] [-timeout D] <file.pl>
//	prolog repl [file.pl ...]
//	prolog version
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/peterh/liner"

	"github.com/jldupont/goprolog"
	"github.com/jldupont/goprolog/pkg/ext"
	"github.com/jldupont/goprolog/pkg/parser"
)

const (
	appName     = "prolog"
	historyFile = ".goprolog_history"
	promptMain  = "?- "
	promptCont  = "|  "
	promptMore  = "   "
)

func red(s string) string   { return "\x1b[31m" + s + "\x1b[0m" }
func green(s string) string { return "\x1b[32m" + s + "\x1b[0m" }

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch cmd := os.Args[1]; cmd {
	case "run":
		os.Exit(cmdRun(os.Args[2:]))
	case "repl":
		os.Exit(cmdRepl(os.Args[2:]))
	case "version":
		fmt.Println(goprolog.Version())
	case "-h", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", appName, cmd)
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Printf(`goprolog %s

Usage:
  %s run [-q query] [-all] [-debug] [-max-steps N] [-timeout D] <file.pl>
                                     Consult a program, run its directives and an optional query.
  %s repl [file.pl ...]              Start the interactive top level.
  %s version                         Print the version.

`, goprolog.Version(), appName, appName, appName)
}

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// -----------------------------------------------------------------------------
// run
// -----------------------------------------------------------------------------

func cmdRun(args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	query := fs.String("q", "", "query to answer after consulting the program")
	all := fs.Bool("all", false, "print every solution instead of the first")
	debug := fs.Bool("debug", false, "trace compilation and execution")
	maxSteps := fs.Int("max-steps", 0, "bound the steps spent per solution (0 = unlimited)")
	timeout := fs.Duration("timeout", 0, "bound the time spent per solution (0 = unlimited)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s run [flags] <file.pl>\n", appName)
		return 2
	}

	file := fs.Arg(0)
	src, err := os.ReadFile(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: cannot read %s: %v\n", appName, file, err)
		return 1
	}

	s, err := goprolog.New(
		ext.WithAll(),
		goprolog.WithLogger(newLogger(*debug)),
		goprolog.WithDebug(*debug),
		goprolog.WithMaxSteps(*maxSteps),
		goprolog.WithTimeout(*timeout),
		goprolog.WithOutput(os.Stdout),
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, red(err.Error()))
		return 1
	}
	if err := s.Consult(string(src)); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", file, red(err.Error()))
		return 1
	}
	if *query == "" {
		return 0
	}

	sols, err := s.Query(*query)
	if err != nil {
		fmt.Fprintln(os.Stderr, red(err.Error()))
		return 1
	}
	found := false
	for {
		sol, ok, err := sols.Next(context.Background())
		if err != nil {
			fmt.Fprintln(os.Stderr, red(err.Error()))
			return 1
		}
		if !ok {
			break
		}
		found = true
		fmt.Println(sol)
		if !*all {
			break
		}
	}
	if !found {
		fmt.Println("false")
		return 1
	}
	return 0
}

// -----------------------------------------------------------------------------
// repl
// -----------------------------------------------------------------------------

func cmdRepl(files []string) int {
	fmt.Printf("goprolog %s, type :help for commands\n", goprolog.Version())

	s, err := goprolog.New(
		ext.WithAll(),
		goprolog.WithLogger(newLogger(false)),
		goprolog.WithOutput(os.Stdout),
		goprolog.WithCaching(true),
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, red(err.Error()))
		return 1
	}
	for _, f := range files {
		if err := consultFile(s, f); err != nil {
			fmt.Fprintln(os.Stderr, red(err.Error()))
		}
	}

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	for {
		code, ok := readByParseProbe(ln, promptMain, promptCont)
		if !ok {
			fmt.Println()
			return 0
		}
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))

		if strings.HasPrefix(code, ":") {
			if quit := command(s, code); quit {
				return 0
			}
			continue
		}
		answer(ln, s, code)
	}
}

// readByParseProbe keeps reading lines while the text so far is a clause
// cut short by the end of input.
func readByParseProbe(ln *liner.State, prompt, cont string) (string, bool) {
	var b strings.Builder

	for {
		var line string
		var err error
		if b.Len() == 0 {
			line, err = ln.Prompt(prompt)
		} else {
			line, err = ln.Prompt(cont)
		}
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			// Ctrl+C abandons the current input
			return "", true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.HasPrefix(strings.TrimSpace(src), ":") {
			return src, true
		}
		_, perr := parser.ParseProgram(src)
		if perr == nil || !parser.IsIncomplete(perr) {
			return src, true
		}
	}
}

// command runs a top-level command and reports whether to quit.
func command(s *goprolog.Session, line string) bool {
	fields := strings.Fields(line)
	switch strings.ToLower(fields[0]) {
	case ":quit", ":q":
		return true
	case ":help":
		fmt.Print(`Commands:
  :consult <file.pl>    add the clauses of a file
  :listing <name/arity> print the compiled code of a predicate
  :predicates           list the predicates defined so far
  :quit                 leave
Anything else is a question; after an answer type ; for the next one.
`)
	case ":consult":
		if len(fields) < 2 {
			fmt.Println("usage: :consult <file.pl>")
			return false
		}
		for _, f := range fields[1:] {
			if err := consultFile(s, f); err != nil {
				fmt.Fprintln(os.Stderr, red(err.Error()))
			}
		}
	case ":listing":
		if len(fields) != 2 {
			fmt.Println("usage: :listing <name/arity>")
			return false
		}
		out, err := s.Listing(fields[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, red(err.Error()))
			return false
		}
		fmt.Print(out)
	case ":predicates":
		for _, p := range s.Predicates() {
			fmt.Println(p)
		}
	default:
		fmt.Println("unknown command. Type :help for the list.")
	}
	return false
}

func consultFile(s *goprolog.Session, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := s.Consult(string(src)); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// answer prints the solutions of a question one at a time, asking before
// each further one.
func answer(ln *liner.State, s *goprolog.Session, question string) {
	sols, err := s.Query(strings.TrimPrefix(question, "?-"))
	if err != nil {
		fmt.Fprintln(os.Stderr, red(err.Error()))
		return
	}

	for {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		sol, ok, err := sols.Next(ctx)
		cancel()
		switch {
		case err != nil:
			fmt.Fprintln(os.Stderr, red(err.Error()))
			return
		case !ok:
			fmt.Println(red("false."))
			return
		}

		reply, perr := ln.Prompt(sol.String() + promptMore)
		if perr != nil || strings.TrimSpace(reply) != ";" {
			fmt.Println(green("true."))
			return
		}
	}
}
