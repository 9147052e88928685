package environment

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/siemens/dtasm/runtime"
	"github.com/siemens/dtasm/wasmhost"
)

// defaultBufSize is the scratch region size a caller gets by passing 0 to
// CreateRuntime, matching the reference implementation's construction
// default.
const defaultBufSize = 8192

// Environment owns one wasmhost.Engine and hands out Modules and Runtimes
// derived from it. It is the entry point applications construct directly;
// everything else in this codebase is reached through it or through the
// values it returns.
type Environment struct {
	engine *wasmhost.Engine

	bootstrapMu   sync.Mutex
	bootstrapDone atomic.Bool
}

// New creates an Environment backed by a fresh wazero runtime. stackBytes is
// forwarded to wasmhost.New; see its doc comment for why it is currently
// advisory only.
func New(ctx context.Context, stackBytes uint32) (*Environment, error) {
	eng, err := wasmhost.New(ctx, stackBytes)
	if err != nil {
		return nil, err
	}
	return &Environment{engine: eng}, nil
}

// LoadModule compiles guest wasm bytes into a reusable Module. The same
// Module can back any number of Runtimes.
func (e *Environment) LoadModule(ctx context.Context, wasmBytes []byte) (*wasmhost.Module, error) {
	return e.engine.LoadModule(ctx, wasmBytes)
}

// CreateRuntime instantiates module and wraps it in a Runtime, running the
// full construction protocol (export resolution, scratch-region
// provisioning, description caching) before returning. bufSize of 0 selects
// defaultBufSize.
func (e *Environment) CreateRuntime(ctx context.Context, module *wasmhost.Module, bufSize uint32, opts ...runtime.Option) (*runtime.Runtime, error) {
	if bufSize == 0 {
		bufSize = defaultBufSize
	}
	if err := e.bootstrap(ctx); err != nil {
		return nil, err
	}
	inst, err := module.Instantiate(ctx)
	if err != nil {
		return nil, err
	}
	rt, err := runtime.New(ctx, inst, bufSize, opts...)
	if err != nil {
		inst.Close(ctx)
		return nil, err
	}
	return rt, nil
}

// bootstrap performs one-time engine-wide setup shared by every module this
// Environment loads. dtasm guests import no host functions today, so this
// is a no-op body: the double-checked lock exists so a future host import
// (a clock, a logger sink) has a natural, already-idiomatic place to live,
// mirroring how the teacher runtime lazily brings up its WASI singleton
// once per engine rather than once per module.
func (e *Environment) bootstrap(ctx context.Context) error {
	if e.bootstrapDone.Load() {
		return nil
	}
	e.bootstrapMu.Lock()
	defer e.bootstrapMu.Unlock()
	if e.bootstrapDone.Load() {
		return nil
	}
	e.bootstrapDone.Store(true)
	return nil
}

// Close releases the underlying engine. It must be called after every
// Runtime derived from this Environment has itself been closed; Runtime and
// Module hold no reference back to the Environment to enforce this, so it
// is documented rather than checked.
func (e *Environment) Close(ctx context.Context) error {
	return e.engine.Close(ctx)
}
