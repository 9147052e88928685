// Package environment is the factory root for the dtasm host runtime: one
// wasmhost.Engine produces any number of loaded Modules and, from those,
// Runtimes. It exists so callers never touch wasmhost directly: Engine
// construction and the one piece of engine-wide shared state live here,
// behind a small surface.
package environment
