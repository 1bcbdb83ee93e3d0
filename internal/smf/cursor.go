package smf

import (
	"bytes"
	"fmt"
)

// MaxVLQ is the largest value a 4-byte variable-length quantity can hold.
const MaxVLQ = 0x0FFFFFFF

// reader is a forward-only cursor over a byte slice.
type reader struct {
	data []byte
	pos  int
	// base is added to pos when reporting offsets of sub-readers.
	base int
}

func newReader(data []byte) *reader {
	return &reader{data: data}
}

// Offset returns the absolute offset of the next byte to be read.
func (r *reader) Offset() int {
	return r.base + r.pos
}

func (r *reader) Len() int {
	return len(r.data) - r.pos
}

func (r *reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 || r.Len() < n {
		return nil, fmt.Errorf("need %d bytes, have %d: %w", n, r.Len(), ErrTruncatedInput)
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *reader) ReadU8() (byte, error) {
	b, err := r.ReadBytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *reader) ReadU16() (uint16, error) {
	b, err := r.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return uint16(b[0])<<8 | uint16(b[1]), nil
}

func (r *reader) ReadU32() (uint32, error) {
	b, err := r.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]), nil
}

// ReadVLQ decodes a MIDI variable-length quantity of at most 4 bytes.
func (r *reader) ReadVLQ() (uint32, error) {
	var v uint32
	for i := 0; i < 4; i++ {
		b, err := r.ReadU8()
		if err != nil {
			return 0, err
		}
		v = v<<7 | uint32(b&0x7F)
		if b&0x80 == 0 {
			return v, nil
		}
	}
	return 0, ErrMalformedVLQ
}

// Sub returns a reader over the next n bytes and advances past them.
func (r *reader) Sub(n int) (*reader, error) {
	base := r.Offset()
	b, err := r.ReadBytes(n)
	if err != nil {
		return nil, err
	}
	return &reader{data: b, base: base}, nil
}

// writer appends big-endian fields to a growable buffer.
type writer struct {
	bytes.Buffer
}

func (w *writer) WriteU8(v byte) {
	w.WriteByte(v)
}

func (w *writer) WriteU16(v uint16) {
	w.Write([]byte{byte(v >> 8), byte(v)})
}

func (w *writer) WriteU32(v uint32) {
	w.Write([]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)})
}

// WriteVLQ writes v in minimal variable-length form.
func (w *writer) WriteVLQ(v uint32) error {
	if v > MaxVLQ {
		return fmt.Errorf("vlq %#x: %w", v, ErrValueOutOfRange)
	}
	var buf [4]byte
	w.Write(AppendVLQ(buf[:0], v))
	return nil
}

// AppendVLQ appends the minimal variable-length encoding of v to dst.
// Values above MaxVLQ are truncated to their low 28 bits.
func AppendVLQ(dst []byte, v uint32) []byte {
	v &= MaxVLQ
	n := VLQLen(v)
	for i := n - 1; i >= 0; i-- {
		b := byte(v>>(7*uint(i))) & 0x7F
		if i > 0 {
			b |= 0x80
		}
		dst = append(dst, b)
	}
	return dst
}

// VLQLen returns the number of bytes the minimal encoding of v takes.
func VLQLen(v uint32) int {
	switch {
	case v < 1<<7:
		return 1
	case v < 1<<14:
		return 2
	case v < 1<<21:
		return 3
	default:
		return 4
	}
}
