package wasmhost

import (
	"context"

	"github.com/tetratelabs/wazero"

	"github.com/siemens/dtasm/errors"
)

// Engine owns a wazero runtime and compiles guest modules against it.
// One Engine can load and instantiate many modules; Close tears down
// everything instantiated from it.
type Engine struct {
	runtime    wazero.Runtime
	stackBytes uint32
}

// New creates an Engine. stackBytes is accepted for API parity with
// embeddings (wasmtime, for one) that expose a per-instance guest stack
// size; wazero has no public equivalent, so the value is recorded but
// otherwise unused.
func New(ctx context.Context, stackBytes uint32) (*Engine, error) {
	cfg := wazero.NewRuntimeConfig()
	rt := wazero.NewRuntimeWithConfig(ctx, cfg)
	return &Engine{runtime: rt, stackBytes: stackBytes}, nil
}

// StackBytes returns the value passed to New.
func (e *Engine) StackBytes() uint32 {
	return e.stackBytes
}

// LoadModule compiles wasmBytes as a plain core-wasm module.
func (e *Engine) LoadModule(ctx context.Context, wasmBytes []byte) (*Module, error) {
	compiled, err := e.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, errors.Load("compile guest module", err)
	}
	return &Module{engine: e, compiled: compiled}, nil
}

// Close releases the underlying wazero runtime and every module/instance
// compiled or instantiated from it.
func (e *Engine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}
