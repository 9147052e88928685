package codec

import (
	"encoding/binary"
	"math"
)

// Builder is a single reusable little-endian scratch buffer. Callers own
// one Builder per call site (or per Runtime) and Reset it between
// messages rather than allocating a fresh buffer each time.
type Builder struct {
	buf []byte
}

// NewBuilder returns a Builder with capacity pre-sized to cap.
func NewBuilder(cap int) *Builder {
	return &Builder{buf: make([]byte, 0, cap)}
}

// Reset truncates the buffer without releasing its backing array.
func (b *Builder) Reset() {
	b.buf = b.buf[:0]
}

// Bytes returns the bytes written so far. The slice is only valid until
// the next Reset or Write* call.
func (b *Builder) Bytes() []byte {
	return b.buf
}

// Len reports the number of bytes written so far.
func (b *Builder) Len() int {
	return len(b.buf)
}

func (b *Builder) WriteU8(v uint8) {
	b.buf = append(b.buf, v)
}

func (b *Builder) WriteBool(v bool) {
	if v {
		b.WriteU8(1)
	} else {
		b.WriteU8(0)
	}
}

func (b *Builder) WriteI32(v int32) {
	b.WriteU32(uint32(v))
}

func (b *Builder) WriteU32(v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	b.buf = append(b.buf, tmp[:]...)
}

func (b *Builder) WriteF64(v float64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], math.Float64bits(v))
	b.buf = append(b.buf, tmp[:]...)
}

func (b *Builder) WriteString(s string) {
	b.WriteU32(uint32(len(s)))
	b.buf = append(b.buf, s...)
}

func (b *Builder) WriteBytes(p []byte) {
	b.buf = append(b.buf, p...)
}
