package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriterReaderRoundtrip(t *testing.T) {
	w := NewWriter()
	w.Byte(0xab)
	w.Uint16(0x0102)
	w.Uint32(0x03040506)
	w.Uint64(0x0708090a0b0c0d0e)
	w.Fixed([]byte{1, 2, 3})
	w.Bytes([]byte("variable"))
	data := w.Finish()

	r := NewReader(data)
	require.Equal(t, byte(0xab), r.Byte())
	require.Equal(t, uint16(0x0102), r.Uint16())
	require.Equal(t, uint32(0x03040506), r.Uint32())
	require.Equal(t, uint64(0x0708090a0b0c0d0e), r.Uint64())
	require.Equal(t, []byte{1, 2, 3}, r.Fixed(3))
	require.Equal(t, []byte("variable"), r.Bytes())
	require.NoError(t, r.Close())
}

func TestBareRoundtrip(t *testing.T) {
	w := NewBareWriter()
	w.Uint64(42)
	data := w.Finish()
	require.Len(t, data, 8)

	r := NewBareReader(data)
	require.Equal(t, uint64(42), r.Uint64())
	require.NoError(t, r.Close())
}

func TestVersionChecked(t *testing.T) {
	w := NewWriter()
	w.Byte(7)
	data := w.Finish()
	data[0] = Version + 1

	r := NewReader(data)
	r.Byte()
	require.ErrorIs(t, r.Err(), ErrUnsupportedVersion)
}

func TestTruncation(t *testing.T) {
	w := NewWriter()
	w.Uint64(1)
	data := w.Finish()

	r := NewReader(data[:len(data)-1])
	r.Uint64()
	require.ErrorIs(t, r.Err(), ErrTruncated)
	require.ErrorIs(t, r.Close(), ErrTruncated)
}

func TestTrailingBytes(t *testing.T) {
	w := NewWriter()
	w.Uint16(9)
	data := append(w.Finish(), 0xff)

	r := NewReader(data)
	require.Equal(t, uint16(9), r.Uint16())
	require.ErrorIs(t, r.Close(), ErrTrailingBytes)
}

func TestStickyError(t *testing.T) {
	r := NewReader([]byte{Version})
	r.Uint32()
	require.ErrorIs(t, r.Err(), ErrTruncated)

	// Later reads keep returning zero values, not panicking.
	require.Zero(t, r.Uint64())
	require.Nil(t, r.Bytes())
	require.ErrorIs(t, r.Err(), ErrTruncated)
}

func TestBytesLengthPrefixTruncated(t *testing.T) {
	w := NewWriter()
	w.Bytes([]byte("payload"))
	data := w.Finish()

	// Chop inside the variable field body.
	r := NewReader(data[:len(data)-2])
	r.Bytes()
	require.ErrorIs(t, r.Err(), ErrTruncated)
}

func TestFixedReturnsCopy(t *testing.T) {
	w := NewWriter()
	w.Fixed([]byte{1, 2, 3, 4})
	data := w.Finish()

	r := NewReader(data)
	out := r.Fixed(4)
	data[1] = 0xee
	require.Equal(t, []byte{1, 2, 3, 4}, out)
}
