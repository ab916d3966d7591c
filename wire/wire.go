package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Version is the current wire format version. Every top-level entity
// encoding starts with this byte.
const Version byte = 1

var (
	// ErrTruncated indicates the input ended before a complete value
	// could be read.
	ErrTruncated = errors.New("wire: truncated input")

	// ErrTrailingBytes indicates the input contained bytes beyond the
	// encoded entity.
	ErrTrailingBytes = errors.New("wire: trailing bytes after entity")

	// ErrUnsupportedVersion indicates the entity was encoded with a
	// wire format version this library does not understand.
	ErrUnsupportedVersion = errors.New("wire: unsupported format version")
)

// Writer accumulates a little-endian binary encoding. All multi-byte
// integers are written little-endian; byte fields are either fixed
// width or carry an explicit uint32 length prefix.
type Writer struct {
	buf []byte
}

// NewWriter returns a Writer starting with the current format version.
func NewWriter() *Writer {
	return &Writer{buf: []byte{Version}}
}

// NewBareWriter returns a Writer without a leading version byte, for
// entities nested inside an already-versioned encoding.
func NewBareWriter() *Writer {
	return &Writer{}
}

// Byte appends a single byte.
func (w *Writer) Byte(b byte) {
	w.buf = append(w.buf, b)
}

// Uint16 appends a little-endian uint16.
func (w *Writer) Uint16(v uint16) {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
}

// Uint32 appends a little-endian uint32.
func (w *Writer) Uint32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

// Uint64 appends a little-endian uint64.
func (w *Writer) Uint64(v uint64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
}

// Fixed appends a fixed-width byte field with no length prefix.
func (w *Writer) Fixed(b []byte) {
	w.buf = append(w.buf, b...)
}

// Bytes appends a variable-length byte field with a uint32 length
// prefix.
func (w *Writer) Bytes(b []byte) {
	w.Uint32(uint32(len(b)))
	w.buf = append(w.buf, b...)
}

// Finish returns the accumulated encoding.
func (w *Writer) Finish() []byte {
	return w.buf
}

// Reader decodes the encoding produced by [Writer]. It is sticky on
// error: after the first failure every subsequent read returns zero
// values and Err reports the original failure.
type Reader struct {
	buf []byte
	off int
	err error
}

// NewReader returns a Reader over data, checking and consuming the
// leading version byte.
func NewReader(data []byte) *Reader {
	r := &Reader{buf: data}
	v := r.Byte()
	if r.err == nil && v != Version {
		r.err = fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}
	return r
}

// NewBareReader returns a Reader over data without expecting a version
// byte.
func NewBareReader(data []byte) *Reader {
	return &Reader{buf: data}
}

func (r *Reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.off+n > len(r.buf) {
		r.err = ErrTruncated
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

// Byte reads a single byte.
func (r *Reader) Byte() byte {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

// Uint16 reads a little-endian uint16.
func (r *Reader) Uint16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

// Uint32 reads a little-endian uint32.
func (r *Reader) Uint32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

// Uint64 reads a little-endian uint64.
func (r *Reader) Uint64() uint64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

// Fixed reads a fixed-width byte field of length n. The returned slice
// is a copy.
func (r *Reader) Fixed(n int) []byte {
	b := r.take(n)
	if b == nil {
		return nil
	}
	out := make([]byte, n)
	copy(out, b)
	return out
}

// Bytes reads a uint32-length-prefixed byte field. The returned slice
// is a copy.
func (r *Reader) Bytes() []byte {
	n := r.Uint32()
	return r.Fixed(int(n))
}

// Err returns the first error encountered, if any.
func (r *Reader) Err() error {
	return r.err
}

// Close verifies the whole input was consumed and returns the first
// error encountered during reading.
func (r *Reader) Close() error {
	if r.err != nil {
		return r.err
	}
	if r.off != len(r.buf) {
		return ErrTrailingBytes
	}
	return nil
}
