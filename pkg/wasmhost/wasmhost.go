// Package wasmhost runs the WASI build of goprolog inside wazero.
//
// The guest module (built from cmd/wasm/wasi) reads one JSON request on
// stdin and writes one JSON response on stdout. A Host compiles the module
// once and instantiates it per request, so every request gets a fresh
// machine with its own memory.
//
// # Example
//
//	h, err := wasmhost.Load(ctx, "goprolog.wasm")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer h.Close(ctx)
//
//	resp, err := h.Solve(ctx, wasmhost.Request{
//	    Program: "p(1). p(2).",
//	    Query:   "p(X).",
//	})
package wasmhost

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tetratelabs/wazero/sys"
)

// Request is the JSON document the guest reads on stdin.
type Request struct {
	Program      string `json:"program"`
	Query        string `json:"query"`
	MaxSolutions int    `json:"max_solutions,omitempty"`
	MaxSteps     int    `json:"max_steps,omitempty"`
}

// Response is the JSON document the guest writes on stdout.
type Response struct {
	Solutions []map[string]string `json:"solutions"`
	Error     string              `json:"error,omitempty"`
}

// Option configures a Host.
type Option func(*Options)

// Options holds host configuration.
type Options struct {
	// Logger receives one debug record per request.
	Logger *slog.Logger
	// MemoryLimitPages caps guest memory in 64KiB pages; 0 keeps the
	// wazero default.
	MemoryLimitPages uint32
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithMemoryLimitPages caps guest memory.
func WithMemoryLimitPages(pages uint32) Option {
	return func(opts *Options) {
		opts.MemoryLimitPages = pages
	}
}

// Host owns a wazero runtime and the compiled guest module.
// It is safe for concurrent use.
type Host struct {
	opts    Options
	runtime wazero.Runtime
	module  wazero.CompiledModule
}

// New compiles the guest module from its binary.
func New(ctx context.Context, wasm []byte, opts ...Option) (*Host, error) {
	options := Options{}
	for _, opt := range opts {
		opt(&options)
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	cfg := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	if options.MemoryLimitPages > 0 {
		cfg = cfg.WithMemoryLimitPages(options.MemoryLimitPages)
	}
	rt := wazero.NewRuntimeWithConfig(ctx, cfg)

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("wasmhost: instantiate WASI: %w", err)
	}
	mod, err := rt.CompileModule(ctx, wasm)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("wasmhost: compile module: %w", err)
	}

	return &Host{opts: options, runtime: rt, module: mod}, nil
}

// Load reads the guest module from path and compiles it.
func Load(ctx context.Context, path string, opts ...Option) (*Host, error) {
	wasm, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("wasmhost: %w", err)
	}
	return New(ctx, wasm, opts...)
}

// Solve runs one request in a fresh guest instance. A guest that reports
// an error yields both the decoded response and a non-nil error.
func (h *Host) Solve(ctx context.Context, req Request) (*Response, error) {
	in, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("wasmhost: marshal request: %w", err)
	}

	var stdout, stderr bytes.Buffer
	cfg := wazero.NewModuleConfig().
		WithName("").
		WithArgs("goprolog").
		WithStdin(bytes.NewReader(in)).
		WithStdout(&stdout).
		WithStderr(&stderr)

	exitCode := uint32(0)
	inst, err := h.runtime.InstantiateModule(ctx, h.module, cfg)
	if err != nil {
		var exitErr *sys.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("wasmhost: run module: %w", err)
		}
		exitCode = exitErr.ExitCode()
	}
	if inst != nil {
		_ = inst.Close(ctx)
	}
	h.opts.Logger.Debug("wasm request", "query", req.Query, "exit", exitCode, "stdout", stdout.Len())

	var resp Response
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return nil, fmt.Errorf("wasmhost: decode response (exit %d, stderr %q): %w", exitCode, stderr.String(), err)
	}
	if resp.Error != "" {
		return &resp, errors.New(resp.Error)
	}
	if exitCode != 0 {
		return &resp, fmt.Errorf("wasmhost: module exited with code %d", exitCode)
	}
	return &resp, nil
}

// Close releases the runtime and every module compiled in it.
func (h *Host) Close(ctx context.Context) error {
	return h.runtime.Close(ctx)
}
