package filesystem

import "time"

// EventKind classifies an Event.
type EventKind int

const (
	// EventDone ends every operation; Err holds its outcome.
	EventDone EventKind = iota
	// EventStale is one ESTALE result.
	EventStale
	// EventRetry is a scheduled retry after a stale result.
	EventRetry
	// EventRecovered is success after at least one retry.
	EventRecovered
	// EventExhausted means the retry budget ran out.
	EventExhausted
)

// Event describes one step of a filesystem operation.
type Event struct {
	Kind    EventKind
	Op      string // "stat", "open" or "copy"
	Volume  string
	Elapsed time.Duration // set on EventDone
	Err     error         // set on EventDone
}

// Observer receives filesystem events. Implementations must be safe for
// concurrent use; the scanner and ingestor report from many goroutines.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) Observe(e Event) { f(e) }

var defaultObserver Observer

// SetObserver installs the package-level observer. Call once at startup;
// nil disables reporting.
func SetObserver(o Observer) {
	defaultObserver = o
}

// emit reports e when an observer is installed.
func emit(e Event) {
	if defaultObserver != nil {
		defaultObserver.Observe(e)
	}
}
