// Package wasmhost wraps wazero to provide the narrow surface the dtasm
// Runtime needs: compile a guest module, instantiate it, resolve its
// exports by name, call them with raw i32/i64 operands, and read/write/
// grow its linear memory.
//
// It deliberately does not speak the WebAssembly Component Model, the
// Canonical ABI, WIT, or host function imports: a dtasm guest is a plain
// core-wasm module with a fixed set of numeric exports (see
// RequiredExports and OptionalExports), and the host never calls into
// guest-imported functions of its own.
package wasmhost
