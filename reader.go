package zipreader

import (
	"encoding/binary"
	"io"
	"os"
)

// windowedReader provides random access over a file through a single
// fixed-size buffer, reloading it on a cache miss. The parser mostly
// reads the directory sequentially with occasional pointer chases to
// local headers, so one reusable window amortizes I/O without mapping
// the whole file.
//
// A single window means two overlapping reads cannot be interleaved;
// ArchiveView serializes all use of the shared windowedReader and hands
// out independent *io.SectionReaders (opened directly against the
// underlying *os.File) for entry content streaming instead.
type windowedReader struct {
	file   *os.File
	length int64

	buf      [blockSize]byte
	winStart int64
	winLen   int
}

func newWindowedReader(f *os.File, length int64) *windowedReader {
	return &windowedReader{file: f, length: length, winStart: -1}
}

// ensureWindow reloads the window so that it covers [off, off+size) if
// it does not already, and validates the request is one this reader
// can service in a single buffer (size must fit in BLOCK).
func (r *windowedReader) ensureWindow(off, size int64) error {
	if size < 1 || size > blockSize {
		return invalidArgument("read size out of range")
	}
	if off < 0 || off+size > r.length {
		return invalidArgument("read offset out of range")
	}
	if r.winStart >= 0 && off >= r.winStart && off+size <= r.winStart+int64(r.winLen) {
		return nil
	}

	start := off
	end := start + blockSize
	if end > r.length {
		end = r.length
	}
	n, err := r.file.ReadAt(r.buf[:end-start], start)
	if err != nil && err != io.EOF {
		return err
	}
	r.winStart = start
	r.winLen = n
	return nil
}

// read returns a freshly copied slice of size bytes starting at off.
func (r *windowedReader) read(off, size int64) ([]byte, error) {
	if err := r.ensureWindow(off, size); err != nil {
		return nil, err
	}
	start := off - r.winStart
	out := make([]byte, size)
	copy(out, r.buf[start:start+size])
	return out, nil
}

// readBytes services reads of any size, looping in BLOCK-sized steps
// when the request exceeds the window. Zero-length payloads (empty
// comments and extra fields are common) yield nil without touching the
// window.
func (r *windowedReader) readBytes(off, size int64) ([]byte, error) {
	if size == 0 {
		return nil, nil
	}
	if size <= blockSize {
		return r.read(off, size)
	}
	out := make([]byte, size)
	for n := int64(0); n < size; {
		step := size - n
		if step > blockSize {
			step = blockSize
		}
		chunk, err := r.read(off+n, step)
		if err != nil {
			return nil, err
		}
		copy(out[n:], chunk)
		n += step
	}
	return out, nil
}

func (r *windowedReader) u8(off int64) (uint8, error) {
	b, err := r.read(off, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *windowedReader) u16(off int64) (uint16, error) {
	b, err := r.read(off, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *windowedReader) u32(off int64) (uint32, error) {
	b, err := r.read(off, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *windowedReader) u64(off int64) (uint64, error) {
	b, err := r.read(off, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}
