// Package dump prints a human-readable structural trace of an archive
// as it is parsed, by installing itself as a zipreader.Observer. It
// carries no parsing logic of its own: every line it prints reflects
// an event the core decoder already emitted.
package dump

import (
	"fmt"
	"io"

	"github.com/martin-sucha/zipreader"
)

// Observer prints one line per parse event to W. Pass it to
// zipreader.Open via zipreader.WithObserver to trace how an archive
// was parsed.
type Observer struct {
	W io.Writer
}

func (o Observer) Observe(e zipreader.Event) {
	if e.Offset >= 0 {
		fmt.Fprintf(o.W, "%-20s offset=%-10d %s\n", e.Kind, e.Offset, e.Detail)
	} else {
		fmt.Fprintf(o.W, "%-20s %s\n", e.Kind, e.Detail)
	}
}
