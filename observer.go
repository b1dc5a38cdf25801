package zipreader

import "log"

// EventKind classifies the typed events an Observer receives while an
// ArchiveView is parsed. Observers are injected collaborators, so the
// decoder itself stays free of formatting concerns.
type EventKind int

const (
	// EventEndRecordFound fires once the end-of-central-directory
	// signature has been located.
	EventEndRecordFound EventKind = iota
	// EventZip64Resolved fires after the ZIP64 locator/record probe,
	// whether or not a ZIP64 tail was actually present.
	EventZip64Resolved
	// EventEntryCorrelated fires twice per central-directory record:
	// once when the central record has been decoded, and again after
	// its local header has been read and reconciled.
	EventEntryCorrelated
	// EventError fires whenever an operation is about to fail; the
	// returned error is still propagated to the caller normally.
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventEndRecordFound:
		return "end-record-found"
	case EventZip64Resolved:
		return "zip64-resolved"
	case EventEntryCorrelated:
		return "entry-correlated"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is a single typed notification surfaced to an Observer.
type Event struct {
	Kind   EventKind
	Offset int64
	Detail string
}

// Observer receives parse events from an ArchiveView. Implementations
// must not block or retain Event values beyond the call.
type Observer interface {
	Observe(Event)
}

type noopObserver struct{}

func (noopObserver) Observe(Event) {}

// LoggingObserver prints each event through a standard library
// *log.Logger. The zero value logs to log.Default.
type LoggingObserver struct {
	Logger *log.Logger
}

func (o LoggingObserver) Observe(e Event) {
	logger := o.Logger
	if logger == nil {
		logger = log.Default()
	}
	if e.Offset >= 0 {
		logger.Printf("zipreader: %s at offset %d: %s", e.Kind, e.Offset, e.Detail)
	} else {
		logger.Printf("zipreader: %s: %s", e.Kind, e.Detail)
	}
}
