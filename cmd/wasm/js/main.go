//go:build js && wasm

// Command goprolog-wasm-js is the WebAssembly entrypoint for browser and Node.js.
//
// It exposes a global `goprolog` object driven in slices of steps, so that a
// page stays responsive while a search runs:
//
//	goprolog.version()           → string
//	goprolog.consult(program)    → undefined  (throws on error)
//	goprolog.query(question)     → handle     (throws on error)
//	handle.run(n)                → snapshotJSON
//	handle.redo()                → snapshotJSON
//
// A snapshot is {"status":"answer"|"paused"|"exhausted","steps":N,"vars":{...}}.
// A paused search continues with the next run(n); after an answer, run(n)
// or redo() looks for the next solution. Errors are reported as
// {"status":"error","error":"..."}.
//
// Build:
//
//	GOOS=js GOARCH=wasm go build -o goprolog.wasm ./cmd/wasm/js/
//
// Usage in Node.js:
//
//	goprolog.consult('p(1). p(2).')
//	const q = goprolog.query('p(X).')
//	console.log(JSON.parse(q.run(1000))) // {status:'answer', vars:{X:'1'}, ...}
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"syscall/js"

	"github.com/jldupont/goprolog"
	"github.com/jldupont/goprolog/pkg/ext"
)

// redoSlice bounds the steps redo() runs before reporting a pause.
const redoSlice = 100000

type snapshot struct {
	Status string            `json:"status"`
	Steps  int               `json:"steps"`
	Vars   map[string]string `json:"vars,omitempty"`
	Error  string            `json:"error,omitempty"`
}

// jsThrow panics with a JS Error so the caller receives a thrown exception.
func jsThrow(msg string) {
	js.Global().Get("Error").New(msg)
	panic(msg)
}

func encode(s snapshot) string {
	out, err := json.Marshal(s)
	if err != nil {
		return fmt.Sprintf(`{"status":"error","error":%q}`, err.Error())
	}
	return string(out)
}

func run(sols *goprolog.Solutions, n int) string {
	snap, err := sols.Run(context.Background(), n)
	if err != nil {
		return encode(snapshot{Status: "error", Steps: snap.Steps, Error: err.Error()})
	}
	return encode(snapshot{
		Status: snap.Status.String(),
		Steps:  snap.Steps,
		Vars:   snap.Solution,
	})
}

func main() {
	session, err := goprolog.New(ext.WithAll())
	if err != nil {
		panic(err)
	}

	consult := js.FuncOf(func(_ js.Value, args []js.Value) interface{} {
		if len(args) < 1 {
			jsThrow("goprolog.consult requires 1 argument: program (string)")
		}
		if err := session.Consult(args[0].String()); err != nil {
			jsThrow(fmt.Sprintf("goprolog.consult: %v", err))
		}
		return nil
	})

	query := js.FuncOf(func(_ js.Value, args []js.Value) interface{} {
		if len(args) < 1 {
			jsThrow("goprolog.query requires 1 argument: question (string)")
		}
		sols, err := session.Query(args[0].String())
		if err != nil {
			jsThrow(fmt.Sprintf("goprolog.query: %v", err))
		}

		runFn := js.FuncOf(func(_ js.Value, inner []js.Value) interface{} {
			n := 0
			if len(inner) > 0 {
				n = inner[0].Int()
			}
			return run(sols, n)
		})
		redoFn := js.FuncOf(func(_ js.Value, _ []js.Value) interface{} {
			return run(sols, redoSlice)
		})
		return js.ValueOf(map[string]interface{}{"run": runFn, "redo": redoFn})
	})

	api := map[string]interface{}{
		"consult": consult,
		"query":   query,
		"version": js.FuncOf(func(_ js.Value, _ []js.Value) interface{} {
			return goprolog.Version()
		}),
	}
	js.Global().Set("goprolog", js.ValueOf(api))

	// Block forever: the JS event loop owns execution from here.
	select {}
}
