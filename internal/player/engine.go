// Package player binds the playback store to an external playback engine.
// The store describes what playback should be doing; the binding drives the
// engine toward that intent and feeds engine events back into the store.
package player

import (
	"context"
	"time"
)

// EventKind classifies engine lifecycle events.
type EventKind int

const (
	// EventReady means the engine finished initializing and accepts commands.
	EventReady EventKind = iota
	// EventStarted means playback actually started or resumed.
	EventStarted
	// EventPaused means playback paused.
	EventPaused
	// EventEnded means the current track played to its end.
	EventEnded
	// EventError means the engine hit a playback error. Playback stops.
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventReady:
		return "ready"
	case EventStarted:
		return "started"
	case EventPaused:
		return "paused"
	case EventEnded:
		return "ended"
	case EventError:
		return "error"
	}
	return "unknown"
}

// Event is a lifecycle notification from the engine.
type Event struct {
	Kind EventKind
	// Err carries details for EventError events.
	Err error
}

// Handle is an active engine session. One owner, one loaded track at a time.
type Handle interface {
	// Play resumes playback of the loaded track.
	Play(ctx context.Context) error
	// Pause pauses playback.
	Pause(ctx context.Context) error
	// Load swaps the loaded track, replacing whatever is playing.
	Load(ctx context.Context, trackID string) error
	// SeekTo jumps to an absolute position in the loaded track.
	SeekTo(ctx context.Context, pos time.Duration) error
	// SetVolume sets the output volume in [0, 1].
	SetVolume(ctx context.Context, v float64) error
	// Position returns the current playback position.
	Position(ctx context.Context) (time.Duration, error)
	// Duration returns the loaded track's duration, or 0 if unknown.
	Duration(ctx context.Context) (time.Duration, error)
	// CurrentID returns the id of the track the engine actually holds.
	// Used to discard stale events after a quick track swap.
	CurrentID() string
	// Stop halts playback without releasing the engine.
	Stop(ctx context.Context) error
	// Close releases the engine process and all its resources.
	Close() error
}

// Engine creates playback sessions. Start must return quickly; engine
// readiness is signaled asynchronously with an EventReady on events.
type Engine interface {
	Start(ctx context.Context, trackID string, events chan<- Event) (Handle, error)
}
