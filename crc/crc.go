// Package crc layers CRC-32 verification on top of an entry's content
// stream. The core zipreader package never checks the CRC itself (the
// descriptor only reports the value the central directory recorded);
// callers that want integrity checking wrap the stream returned by
// EntryDescriptor.Open with a Reader from this package.
package crc

import (
	"errors"
	"hash/crc32"
	"io"
)

// ErrMismatch is returned by Close when the stream was read to EOF and
// the accumulated CRC-32 does not match the expected value. Read itself
// never returns it.
var ErrMismatch = errVal("crc: checksum mismatch")

type errVal string

func (e errVal) Error() string { return string(e) }

// Reader wraps an io.ReadCloser, accumulating a CRC-32 (IEEE
// polynomial, matching the ZIP format's own checksum) over every byte
// read, and comparing it against the expected value once the
// underlying reader is exhausted.
type Reader struct {
	r       io.ReadCloser
	want    uint32
	hash    uint32
	done    bool
	matched bool
}

// NewReader wraps r, checking its content against want once fully read.
func NewReader(r io.ReadCloser, want uint32) *Reader {
	return &Reader{r: r, want: want}
}

func (r *Reader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if n > 0 {
		r.hash = crc32.Update(r.hash, crc32.IEEETable, p[:n])
	}
	if err == io.EOF {
		r.finish()
	}
	return n, err
}

func (r *Reader) finish() {
	if r.done {
		return
	}
	r.done = true
	r.matched = r.hash == r.want
}

// Close releases the underlying reader. If the stream was fully
// consumed and its checksum did not match the expected value, Close
// returns ErrMismatch (joined with any error the underlying Close
// returns).
func (r *Reader) Close() error {
	err := r.r.Close()
	if r.done && !r.matched {
		if err != nil {
			return errors.Join(ErrMismatch, err)
		}
		return ErrMismatch
	}
	return err
}
