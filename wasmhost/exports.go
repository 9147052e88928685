package wasmhost

import "github.com/tetratelabs/wazero/api"

// RequiredExports lists the guest exports every dtasm module must provide.
// LoadModule and Instantiate do not themselves enforce this list, that is
// the Runtime's job at construction time (PhaseLink), but the list lives
// here because it names wasmhost.ExportHandle targets, not Runtime
// vocabulary.
var RequiredExports = []string{
	"alloc",
	"dealloc",
	"getModelDescription",
	"init",
	"getValues",
	"setValues",
	"doStep",
}

// OptionalExports lists guest exports that are not part of every model but
// that the Runtime probes for and uses when present.
var OptionalExports = []string{
	"resetStep",
	"terminate",
}

// PageSize is the fixed size, in bytes, of one unit of wasm linear memory
// growth.
const PageSize = 65536

// ExportHandle names a resolved guest export. Instance.Call takes a handle
// rather than a name so a Runtime that resolves exports once at
// construction does not pay a map lookup per call: FindExport fills in fn
// alongside name, and Call invokes it directly.
type ExportHandle struct {
	name string
	fn   api.Function
}

// Name returns the export name the handle was resolved from, for error
// messages.
func (h ExportHandle) Name() string {
	return h.name
}

// NewExportHandle builds a handle directly from a name, bypassing
// Instance.FindExport. It exists for GuestInstance implementations that
// are not backed by a wasmhost.Instance, such as a test double that
// implements the seven-export ABI directly in Go. fn is left nil; such a
// GuestInstance dispatches on the name itself rather than through
// Instance.Call.
func NewExportHandle(name string) ExportHandle {
	return ExportHandle{name: name}
}
