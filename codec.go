package zipreader

import (
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// DefaultCodepage is the code page used to decode names and comments
// when a header does not carry the UTF-8 flag and the caller did not
// supply one via WithCodepage. It round-trips the standard OEM glyph
// set historically used by PKWARE-compatible tools.
var DefaultCodepage encoding.Encoding = charmap.CodePage437

// lenientUTF8 substitutes U+FFFD for malformed byte sequences instead
// of returning an error; unicode.UTF8's decoder already does so.
var lenientUTF8 encoding.Encoding = unicode.UTF8

// textCodec decodes byte slices for names and comments, choosing
// between a caller-supplied code page and UTF-8 per-header.
type textCodec struct {
	codepage encoding.Encoding
}

func newTextCodec(codepage encoding.Encoding) textCodec {
	if codepage == nil {
		codepage = DefaultCodepage
	}
	return textCodec{codepage: codepage}
}

// decode converts b to a string. When preferUTF8 is true (the header's
// general-purpose flag bit 11 is set), b is decoded as UTF-8 with
// malformed sequences substituted by U+FFFD. Otherwise the configured
// code page is used. A zero-length b always yields "".
func (c textCodec) decode(b []byte, preferUTF8 bool) (string, error) {
	if len(b) == 0 {
		return "", nil
	}
	if preferUTF8 {
		return lenientUTF8.NewDecoder().String(string(b))
	}
	return c.codepage.NewDecoder().String(string(b))
}
