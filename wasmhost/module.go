package wasmhost

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/siemens/dtasm/errors"
)

// Module is a compiled, not-yet-instantiated guest module.
type Module struct {
	engine   *Engine
	compiled wazero.CompiledModule
}

// ExportNames returns the name of every function the compiled module
// exports. The Runtime does not use it: it checks RequiredExports through
// Instance.FindExport after instantiating.
func (m *Module) ExportNames() []string {
	defs := m.compiled.ExportedFunctions()
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	return names
}

// Instantiate creates a fresh Instance. Each call yields an independent
// linear memory and global state; the compiled module itself is immutable
// and may be instantiated any number of times.
func (m *Module) Instantiate(ctx context.Context) (*Instance, error) {
	modCfg := wazero.NewModuleConfig().WithName("")

	mod, err := m.engine.runtime.InstantiateModule(ctx, m.compiled, modCfg)
	if err != nil {
		return nil, errors.Load("instantiate guest module", err)
	}

	inst := &Instance{
		module: m,
		api:    mod,
		funcs:  make(map[string]api.Function),
	}
	inst.memory = mod.Memory()
	return inst, nil
}
