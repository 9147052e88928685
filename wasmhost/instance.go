package wasmhost

import (
	"context"

	"github.com/tetratelabs/wazero/api"

	"github.com/siemens/dtasm/errors"
)

// Instance is one running incarnation of a Module: its own linear memory,
// globals, and table. A dtasm Runtime owns exactly one Instance for its
// lifetime.
type Instance struct {
	module *Module
	api    api.Module
	memory api.Memory
	funcs  map[string]api.Function
}

// FindExport resolves name to a callable handle, caching the lookup.
// Callers (the Runtime, at construction time) should resolve every export
// they need once and hold onto the handles rather than calling FindExport
// per invocation.
func (i *Instance) FindExport(name string) (ExportHandle, error) {
	if fn, ok := i.funcs[name]; ok {
		return ExportHandle{name: name, fn: fn}, nil
	}
	fn := i.api.ExportedFunction(name)
	if fn == nil {
		return ExportHandle{}, errors.MissingExport(name)
	}
	i.funcs[name] = fn
	return ExportHandle{name: name, fn: fn}, nil
}

// HasExport reports whether name is exported, without caching a handle.
// Used to probe for OptionalExports like resetStep/terminate.
func (i *Instance) HasExport(name string) bool {
	if _, ok := i.funcs[name]; ok {
		return true
	}
	return i.api.ExportedFunction(name) != nil
}

// Call invokes the export named by handle with the given raw operands.
func (i *Instance) Call(ctx context.Context, handle ExportHandle, args ...uint64) ([]uint64, error) {
	fn := handle.fn
	if fn == nil {
		var ok bool
		fn, ok = i.funcs[handle.name]
		if !ok {
			fn = i.api.ExportedFunction(handle.name)
			if fn == nil {
				return nil, errors.MissingExport(handle.name)
			}
			i.funcs[handle.name] = fn
		}
	}
	results, err := fn.Call(ctx, args...)
	if err != nil {
		return nil, errors.New(errors.PhaseRuntime, errors.KindGuestStatus).
			Detail("call %q trapped", handle.name).
			Cause(err).
			Build()
	}
	return results, nil
}

// ReadMemory returns a copy-on-read view of length bytes at offset in the
// instance's linear memory.
func (i *Instance) ReadMemory(offset, length uint32) ([]byte, error) {
	if i.memory == nil {
		return nil, errors.LinearMemoryOverflow("instance has no exported memory")
	}
	data, ok := i.memory.Read(offset, length)
	if !ok {
		return nil, errors.LinearMemoryOverflow("read out of bounds")
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// WriteMemory writes data into the instance's linear memory starting at
// offset.
func (i *Instance) WriteMemory(offset uint32, data []byte) error {
	if i.memory == nil {
		return errors.LinearMemoryOverflow("instance has no exported memory")
	}
	if !i.memory.Write(offset, data) {
		return errors.LinearMemoryOverflow("write out of bounds")
	}
	return nil
}

// MemorySizeBytes returns the current linear memory size in bytes.
func (i *Instance) MemorySizeBytes() uint32 {
	if i.memory == nil {
		return 0
	}
	return i.memory.Size()
}

// GrowMemory grows linear memory by deltaPages and returns the previous
// size in pages.
func (i *Instance) GrowMemory(ctx context.Context, deltaPages uint32) (uint32, error) {
	if i.memory == nil {
		return 0, errors.LinearMemoryOverflow("instance has no exported memory")
	}
	prev, ok := i.memory.Grow(deltaPages)
	if !ok {
		return 0, errors.LinearMemoryOverflow("memory.grow failed")
	}
	return prev, nil
}

// Close tears down the instance.
func (i *Instance) Close(ctx context.Context) error {
	return i.api.Close(ctx)
}
