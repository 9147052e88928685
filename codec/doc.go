// Package codec implements the binary wire schema exchanged between the
// host and a dtasm guest module.
//
// The schema is a small hand-rolled little-endian format: fixed-width
// integers and floats, length-prefixed strings, and length-prefixed
// sequences. It is not FlatBuffers (the original Rust implementation's
// choice; see DESIGN.md for why no FlatBuffers-for-Go dependency was
// pulled in), but it is deliberately close to it: a ModelDescription
// message opens with a 4-byte magic and a 1-byte schema version, which
// doubles as the "schema signature" the Runtime verifies on load.
//
// Encoding uses a single reusable Builder per call site, matching the
// "single owned scratch builder ... reset, not freed, between calls"
// discipline spec.md §4.2 calls for. Decoding uses a Reader that performs
// bounds checks on every field and returns a *errors.Error (PhaseCodec)
// on any malformed input.
package codec
