package codec

import (
	"encoding/binary"
	"fmt"

	"github.com/alex-sumner/solana-rabbitx-contract/rbxerrors"
)

// Decoder reads fields of the account layout from a byte slice.
// It is the exact inverse of Encoder.
type Decoder struct {
	data []byte
	pos  int
}

// NewDecoder creates a decoder over data. The slice is not copied.
func NewDecoder(data []byte) *Decoder {
	return &Decoder{data: data}
}

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int {
	return len(d.data) - d.pos
}

// ReadDiscriminator consumes the type tag and verifies it against want.
// Every account decode starts here: the remainder of the buffer is only
// interpreted once the tag matches.
func (d *Decoder) ReadDiscriminator(want Discriminator) error {
	b, err := d.take(DiscriminatorLength)
	if err != nil {
		return err
	}
	var got Discriminator
	copy(got[:], b)
	if got != want {
		return fmt.Errorf("%w: got %x want %x", rbxerrors.ErrCTypeMismatch, got, want)
	}
	return nil
}

// ReadRaw consumes n bytes. The returned slice aliases the decoder's buffer.
func (d *Decoder) ReadRaw(n int) ([]byte, error) {
	return d.take(n)
}

func (d *Decoder) ReadUint8() (uint8, error) {
	b, err := d.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (d *Decoder) ReadUint32() (uint32, error) {
	b, err := d.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (d *Decoder) ReadUint64() (uint64, error) {
	b, err := d.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (d *Decoder) ReadInt64() (int64, error) {
	v, err := d.ReadUint64()
	return int64(v), err
}

// ReadLength consumes the u32 element count prefixing a sequence and bounds
// it against the remaining buffer so a corrupt count cannot trigger a huge
// allocation.
func (d *Decoder) ReadLength() (int, error) {
	n, err := d.ReadUint32()
	if err != nil {
		return 0, err
	}
	if int(n) > d.Remaining() {
		return 0, fmt.Errorf("%w: sequence count %d exceeds %d remaining bytes", rbxerrors.ErrCShortBuffer, n, d.Remaining())
	}
	return int(n), nil
}

// ReadVarBytes consumes a u32 length prefix and that many bytes, copying
// them out of the buffer.
func (d *Decoder) ReadVarBytes() ([]byte, error) {
	n, err := d.ReadLength()
	if err != nil {
		return nil, err
	}
	b, err := d.take(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// ReadOption consumes the presence byte preceding an optional field.
func (d *Decoder) ReadOption() (bool, error) {
	b, err := d.ReadUint8()
	if err != nil {
		return false, err
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("invalid presence byte %d at offset %d", b, d.pos-1)
	}
}

// Finish verifies the whole buffer was consumed.
func (d *Decoder) Finish() error {
	if d.Remaining() != 0 {
		return fmt.Errorf("%w: %d bytes left", rbxerrors.ErrCTrailingData, d.Remaining())
	}
	return nil
}

func (d *Decoder) take(n int) ([]byte, error) {
	if d.Remaining() < n {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", rbxerrors.ErrCShortBuffer, n, d.pos, d.Remaining())
	}
	b := d.data[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}
