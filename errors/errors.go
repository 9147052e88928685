package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in the host/guest call protocol the error occurred.
type Phase string

const (
	PhaseLoad     Phase = "load"     // compiling/validating guest module bytes
	PhaseLink     Phase = "link"     // resolving required guest exports
	PhaseCodec    Phase = "codec"    // encoding/decoding a wire message
	PhaseRuntime  Phase = "runtime"  // call ordering, buffer sizing, memory staging
	PhaseSnapshot Phase = "snapshot" // save_state/load_state
)

// Kind categorizes the error within its Phase.
type Kind string

const (
	KindInvalidData    Kind = "invalid_data"    // LoadError
	KindMissingExport  Kind = "missing_export"  // LinkError
	KindBufferTooSmall Kind = "buffer_too_small"
	KindMemoryOverflow Kind = "memory_overflow" // LinearMemoryOverflow
	KindMalformed      Kind = "malformed"       // CodecError: truncated/unparsable message
	KindInvalidEnum    Kind = "invalid_enum"    // CodecError: unknown VariableType/CausalityType
	KindSchemaMismatch Kind = "schema_mismatch" // CodecError: model description signature mismatch
	KindGuestStatus     Kind = "guest_status"    // Warning|Discard|Error|Fatal surfaced verbatim
	KindPrecondition    Kind = "precondition"    // call-ordering violation
	KindInvalidSnapshot Kind = "invalid_snapshot"
)

// Error is the structured error type used throughout the host runtime.
type Error struct {
	Cause error
	Phase Phase
	Kind  Kind

	Detail string

	// Need/Have carry the sizes for KindBufferTooSmall.
	Need uint32
	Have uint32

	// Size carries the byte length for KindInvalidSnapshot.
	Size int

	// VariableID names the offending variable for codec faults that
	// reference one (invalid enum, type/causality mismatch, unknown id).
	VariableID    int32
	HasVariableID bool
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.HasVariableID {
		fmt.Fprintf(&b, " (variable id %d)", e.VariableID)
	}
	if e.Kind == KindBufferTooSmall {
		fmt.Fprintf(&b, " (need %d, have %d)", e.Need, e.Have)
	}
	if e.Kind == KindInvalidSnapshot {
		fmt.Fprintf(&b, " (size %d)", e.Size)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error's (Phase, Kind) pair.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Phase == t.Phase && e.Kind == t.Kind
}

// Builder constructs an Error field by field.
type Builder struct {
	err Error
}

// New starts a Builder for the given Phase and Kind.
func New(phase Phase, kind Kind) *Builder {
	return &Builder{err: Error{Phase: phase, Kind: kind}}
}

func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

func (b *Builder) Variable(id int32) *Builder {
	b.err.VariableID = id
	b.err.HasVariableID = true
	return b
}

func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors, one per spec.md §7 error category.

// Load reports that guest module bytes could not be compiled.
func Load(detail string, cause error) *Error {
	return &Error{Phase: PhaseLoad, Kind: KindInvalidData, Detail: detail, Cause: cause}
}

// MissingExport reports that a required guest export is absent.
func MissingExport(name string) *Error {
	return &Error{Phase: PhaseLink, Kind: KindMissingExport, Detail: fmt.Sprintf("required export %q not found", name)}
}

// BufferTooSmall reports a guest response (or description) that needs more
// bytes than the configured region allows.
func BufferTooSmall(phase Phase, need, have uint32) *Error {
	return &Error{Phase: phase, Kind: KindBufferTooSmall, Need: need, Have: have}
}

// LinearMemoryOverflow reports a request that would stage bytes beyond the
// guest's current linear memory bounds.
func LinearMemoryOverflow(detail string) *Error {
	return &Error{Phase: PhaseRuntime, Kind: KindMemoryOverflow, Detail: detail}
}

// Codec reports a malformed or schema-invalid wire message.
func Codec(kind Kind, detail string) *Error {
	return &Error{Phase: PhaseCodec, Kind: kind, Detail: detail}
}

// CodecVariable is Codec with an offending variable id attached.
func CodecVariable(kind Kind, id int32, detail string) *Error {
	return &Error{Phase: PhaseCodec, Kind: kind, Detail: detail, VariableID: id, HasVariableID: true}
}

// GuestStatus wraps a non-OK status the guest returned, for callers that
// want it to flow through the error path rather than a return value.
func GuestStatus(detail string) *Error {
	return &Error{Phase: PhaseRuntime, Kind: KindGuestStatus, Detail: detail}
}

// Precondition reports a call-ordering violation: op was invoked while the
// Runtime was in a phase that does not permit it.
func Precondition(op, requires string) *Error {
	return &Error{Phase: PhaseRuntime, Kind: KindPrecondition, Detail: fmt.Sprintf("%s requires %s", op, requires)}
}

// InvalidSnapshot reports a load_state buffer whose length is not a
// positive multiple of the wasm page size.
func InvalidSnapshot(size int) *Error {
	return &Error{Phase: PhaseSnapshot, Kind: KindInvalidSnapshot, Size: size}
}
