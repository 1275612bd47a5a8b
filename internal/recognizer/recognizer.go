package recognizer

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned by Start when no speech credential is
// available to the process.
var ErrNotConfigured = errors.New("speech recognition is not configured")

type EventKind int

const (
	// KindInterim carries a provisional partial result. It is superseded
	// by later interim events or by the final event of the utterance.
	KindInterim EventKind = iota
	// KindFinal carries the terminal recognized text of one utterance.
	KindFinal
	// KindError reports an unrecoverable stream failure. No reconnect is
	// attempted; the stream closes after emitting it.
	KindError
	// KindEnded signals that the stream has stopped and no further events
	// will be emitted.
	KindEnded
)

// Event is one tagged recognition event. Confidence is a 0-100 score and
// only ever set on final events; an absent score is nil, never zero.
type Event struct {
	Kind       EventKind
	Text       string
	Confidence *int
	Err        error
}

// Stream is a live recognition stream. Events is lazy, unbounded and
// non-restartable; the channel closes after the terminal Ended event.
type Stream interface {
	Events() <-chan Event
	Write(pcm []byte) error
	// Stop ends the stream and releases audio resources. In-flight
	// recognition of the current utterance is discarded, not flushed.
	// Idempotent: stopping a stopped stream is a no-op.
	Stop() error
}

type Recognizer interface {
	Start(ctx context.Context, language string) (Stream, error)
}
