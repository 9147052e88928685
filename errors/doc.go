// Package errors provides the structured error taxonomy used throughout
// the dtasm host runtime.
//
// Errors are categorized by Phase (where in the host/guest call protocol
// the failure occurred) and Kind (the error category). Use the Builder for
// cases that need a cause chain or detail message:
//
//	err := errors.New(errors.PhaseCodec, errors.KindMalformed).
//		Detail("model description missing model info").
//		Build()
//
// or one of the convenience constructors for the common error categories:
//
//	err := errors.BufferTooSmall(errors.PhaseRuntime, need, have)
//	err := errors.Precondition("do_step", "initialize or load_state")
//
// All errors implement the standard error interface and support errors.Is.
package errors
