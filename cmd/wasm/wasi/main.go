//go:build wasip1

// Command goprolog-wasm-wasi is the WASI (wasip1) entrypoint for use from any
// language that supports the WebAssembly System Interface.
//
// Protocol: single JSON object on stdin → single JSON object on stdout.
//
//	stdin:  { "program": "<clauses>", "query": "<question>",
//	          "max_solutions": N, "max_steps": N }
//	stdout: { "solutions": [ { "X": "1" }, ... ] }   on success
//	        { "error": "<message>" }                 on failure (exit code 1)
//
// max_solutions and max_steps are optional; zero means unlimited.
//
// Build:
//
//	GOOS=wasip1 GOARCH=wasm go build -o goprolog.wasm ./cmd/wasm/wasi/
//
// Usage with wasmtime CLI:
//
//	echo '{"program":"p(1). p(2).","query":"p(X)."}' | wasmtime goprolog.wasm
//
// From Go, pkg/wasmhost runs the module inside wazero.
package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/jldupont/goprolog"
	"github.com/jldupont/goprolog/pkg/ext"
)

type request struct {
	Program      string `json:"program"`
	Query        string `json:"query"`
	MaxSolutions int    `json:"max_solutions,omitempty"`
	MaxSteps     int    `json:"max_steps,omitempty"`
}

type response struct {
	Solutions []goprolog.Solution `json:"solutions"`
	Error     string              `json:"error,omitempty"`
}

func writeResponse(r response, exitCode int) {
	_ = json.NewEncoder(os.Stdout).Encode(r)
	os.Exit(exitCode)
}

func main() {
	var req request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(response{Error: "invalid request JSON: " + err.Error()}, 1)
	}

	s, err := goprolog.New(ext.WithAll(), goprolog.WithMaxSteps(req.MaxSteps))
	if err != nil {
		writeResponse(response{Error: err.Error()}, 1)
	}
	if err := s.Consult(req.Program); err != nil {
		writeResponse(response{Error: err.Error()}, 1)
	}
	sols, err := s.Query(req.Query)
	if err != nil {
		writeResponse(response{Error: err.Error()}, 1)
	}

	out := []goprolog.Solution{}
	ctx := context.Background()
	for req.MaxSolutions <= 0 || len(out) < req.MaxSolutions {
		sol, ok, err := sols.Next(ctx)
		if err != nil {
			writeResponse(response{Solutions: out, Error: err.Error()}, 1)
		}
		if !ok {
			break
		}
		out = append(out, sol)
	}

	writeResponse(response{Solutions: out}, 0)
}
