package runtime

import (
	"context"

	"github.com/siemens/dtasm/wasmhost"
)

// GuestInstance is the capability surface the Runtime needs from an
// execution instance. *wasmhost.Instance satisfies it; the fake-guest test
// double in this package's tests satisfies it without involving wazero at
// all, letting the state-machine and round-trip logic be exercised
// without a compiled .wasm binary.
type GuestInstance interface {
	FindExport(name string) (wasmhost.ExportHandle, error)
	HasExport(name string) bool
	Call(ctx context.Context, handle wasmhost.ExportHandle, args ...uint64) ([]uint64, error)
	ReadMemory(offset, length uint32) ([]byte, error)
	WriteMemory(offset uint32, data []byte) error
	MemorySizeBytes() uint32
	GrowMemory(ctx context.Context, deltaPages uint32) (uint32, error)
	Close(ctx context.Context) error
}
