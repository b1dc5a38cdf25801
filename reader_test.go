package zipreader

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestReader(t *testing.T, data []byte) *windowedReader {
	t.Helper()
	path := writeTempArchive(t, data)
	f, err := os.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return newWindowedReader(f, int64(len(data)))
}

func TestWindowedReaderRejectsOutOfRangeRequests(t *testing.T) {
	r := openTestReader(t, []byte("0123456789"))

	_, err := r.read(-1, 1)
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = r.read(8, 3)
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = r.read(0, blockSize+1)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestWindowedReaderTypedAccessors(t *testing.T) {
	r := openTestReader(t, []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08})

	v8, err := r.u8(7)
	require.NoError(t, err)
	require.Equal(t, uint8(0x08), v8)

	v16, err := r.u16(0)
	require.NoError(t, err)
	require.Equal(t, uint16(0x0201), v16)

	v32, err := r.u32(2)
	require.NoError(t, err)
	require.Equal(t, uint32(0x06050403), v32)

	v64, err := r.u64(0)
	require.NoError(t, err)
	require.Equal(t, uint64(0x0807060504030201), v64)
}

func TestWindowedReaderZeroLengthPayload(t *testing.T) {
	r := openTestReader(t, []byte("abc"))

	b, err := r.readBytes(3, 0)
	require.NoError(t, err)
	require.Empty(t, b)
}
