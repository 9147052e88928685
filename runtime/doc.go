// Package runtime implements the dtasm host/guest call protocol: the
// state machine, the two pre-allocated guest-memory scratch regions, and
// the request/response round trip that drives a wasmhost.Instance through
// getModelDescription, init, getValues, setValues, doStep, and the
// save_state/load_state snapshot mechanism.
//
// A Runtime owns exactly one wasmhost.Instance for its lifetime and is not
// safe for concurrent use: callers serialize their own access, matching
// the single-threaded, strictly-ordered guest call model the protocol
// requires.
package runtime
