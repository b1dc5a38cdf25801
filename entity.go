package zipreader

import (
	"context"
	"io"
	"iter"
	"os"
	"time"

	"github.com/klauspost/compress/flate"
)

// EntryDescriptor describes one member of an archive: its metadata, as
// reconciled from the central directory and correlated local header,
// and an opaque handle letting callers open its content on demand.
type EntryDescriptor struct {
	Name             string
	Comment          string
	IsDirectory      bool
	IsProtected      bool
	Method           CompressionMethod
	CompressedSize   int64
	UncompressedSize int64
	Modified         time.Time
	CRC32            uint32
	CentralExtra     []byte
	LocalExtra       []byte

	payloadOffset int64
	file          *os.File
}

// Open returns a reader over the entry's decompressed content. The
// returned ReadCloser is independent of any other open entry or of the
// ArchiveView's own windowed reader: it is backed directly by the
// underlying file handle via an io.SectionReader, so positioned reads
// (pread) make concurrent use across entries safe even though the
// ArchiveView's internal window is not itself safe for concurrent use.
func (d *EntryDescriptor) Open(ctx context.Context) (io.ReadCloser, error) {
	if d.IsProtected {
		return nil, unsupportedEntry("entry is encrypted")
	}
	switch d.Method {
	case Stored, Deflated:
	default:
		return nil, unsupportedEntry("unsupported compression method: " + d.Method.String())
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	section := io.NewSectionReader(d.file, d.payloadOffset, d.CompressedSize)
	if d.Method == Stored {
		return io.NopCloser(section), nil
	}
	return flate.NewReader(section), nil
}

// EntityKind distinguishes the two kinds of value an ArchiveView's
// iteration yields.
type EntityKind int

const (
	// EntityArchiveComment is yielded at most once, first, carrying the
	// archive-level comment; it is omitted when the comment is empty.
	EntityArchiveComment EntityKind = iota
	// EntityFile is yielded once per archive member.
	EntityFile
)

// ZipEntity is one value produced while iterating an ArchiveView:
// either the archive comment or a member's descriptor.
type ZipEntity struct {
	Kind    EntityKind
	Comment string
	Entry   EntryDescriptor
}

// ArchiveView is an open handle onto a parsed archive. Create one with
// Open and release its file handle with Close when done.
type ArchiveView struct {
	file   *os.File
	reader *windowedReader
	codec  textCodec
	opts   options

	length  int64
	dir     directory
	comment string
}

// Open parses path as a ZIP archive: it locates the end-of-central-
// directory record (resolving any ZIP64 tail) and returns a view ready
// for iteration. It does not yet read the central directory records or
// any local headers; those are read when Entities is iterated.
func Open(path string, opts ...Option) (*ArchiveView, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	length := info.Size()
	if length < endRecordLen {
		f.Close()
		return nil, notAnArchive("file is smaller than a minimal end-of-central-directory record")
	}

	reader := newWindowedReader(f, length)
	codec := newTextCodec(o.codepage)

	dir, comment, err := locateDirectory(reader, length, o.maxComment, codec, o.observer)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &ArchiveView{
		file:    f,
		reader:  reader,
		codec:   codec,
		opts:    o,
		length:  length,
		dir:     dir,
		comment: comment,
	}, nil
}

// Close releases the underlying file handle. Any EntryDescriptor
// obtained from this view must not be opened after Close.
func (v *ArchiveView) Close() error {
	return v.file.Close()
}

// Entities returns a pull-iterator over the archive: the archive
// comment first (if non-empty), then one EntityFile per member in central-directory
// order. Iteration stops and surfaces an error the first time any
// record fails to parse or correlate.
func (v *ArchiveView) Entities() iter.Seq2[ZipEntity, error] {
	return func(yield func(ZipEntity, error) bool) {
		if v.comment != "" {
			if !yield(ZipEntity{Kind: EntityArchiveComment, Comment: v.comment}, nil) {
				return
			}
		}

		entries, err := walkDirectory(v.reader, v.dir, v.codec, v.opts.observer)
		if err != nil {
			yield(ZipEntity{}, err)
			return
		}

		for _, ce := range entries {
			d, err := correlateLocal(v.reader, v.length, ce, v.opts.observer)
			if err != nil {
				yield(ZipEntity{}, err)
				return
			}
			d.file = v.file
			if !yield(ZipEntity{Kind: EntityFile, Entry: d}, nil) {
				return
			}
		}
	}
}
