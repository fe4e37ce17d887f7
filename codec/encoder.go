package codec

import (
	"bytes"
	"encoding/binary"
)

// Encoder appends fields of the account layout to an in-memory buffer.
// Encoding cannot fail; the buffer grows as needed.
type Encoder struct {
	buf bytes.Buffer
}

// NewEncoder creates an empty encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Bytes returns the encoded layout.
func (e *Encoder) Bytes() []byte {
	return e.buf.Bytes()
}

// Len returns the number of bytes written so far.
func (e *Encoder) Len() int {
	return e.buf.Len()
}

// WriteDiscriminator writes the fixed-width type tag.
func (e *Encoder) WriteDiscriminator(d Discriminator) {
	e.buf.Write(d[:])
}

// WriteRaw writes b verbatim. Used for fixed-width fields such as addresses.
func (e *Encoder) WriteRaw(b []byte) {
	e.buf.Write(b)
}

func (e *Encoder) WriteUint8(v uint8) {
	e.buf.WriteByte(v)
}

func (e *Encoder) WriteUint32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	e.buf.Write(b[:])
}

func (e *Encoder) WriteUint64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	e.buf.Write(b[:])
}

func (e *Encoder) WriteInt64(v int64) {
	e.WriteUint64(uint64(v))
}

// WriteLength writes the u32 element count prefixing a sequence.
func (e *Encoder) WriteLength(n int) {
	e.WriteUint32(uint32(n))
}

// WriteVarBytes writes a u32 length prefix followed by the bytes.
func (e *Encoder) WriteVarBytes(b []byte) {
	e.WriteLength(len(b))
	e.buf.Write(b)
}

// WriteOption writes the presence byte preceding an optional field.
// The field itself is written by the caller only when present.
func (e *Encoder) WriteOption(present bool) {
	if present {
		e.buf.WriteByte(1)
	} else {
		e.buf.WriteByte(0)
	}
}
