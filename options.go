package zipreader

import "golang.org/x/text/encoding"

type options struct {
	codepage   encoding.Encoding
	observer   Observer
	maxComment int64
}

func defaultOptions() options {
	return options{
		codepage:   DefaultCodepage,
		observer:   noopObserver{},
		maxComment: endRecordLen + maxCommentLen,
	}
}

// Option configures an ArchiveView at Open time.
type Option func(*options)

// WithCodepage overrides the code page used to decode names and
// comments that do not carry the UTF-8 flag. The default is CP437.
func WithCodepage(enc encoding.Encoding) Option {
	return func(o *options) {
		if enc != nil {
			o.codepage = enc
		}
	}
}

// WithObserver installs an Observer that receives typed parse events.
// The default observer discards every event.
func WithObserver(observer Observer) Option {
	return func(o *options) {
		if observer != nil {
			o.observer = observer
		}
	}
}

// WithMaxCommentLength bounds the backward scan window used to locate
// the end-of-central-directory record, expressed as the maximum
// comment length to account for. It exists primarily so tests can
// exercise the chunked scanner without generating 64KiB comments; the
// default already covers the format's maximum possible comment length
// and should not need overriding in production use.
func WithMaxCommentLength(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.maxComment = endRecordLen + int64(n)
		}
	}
}
