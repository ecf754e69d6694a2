// Package history records play events and recent search queries.
// Recording is fire-and-forget from playback's point of view: failures are
// logged by the caller and never interrupt the music.
package history

import (
	"context"
	"sync"

	"github.com/mkessler/strum/internal/core"
)

// Cap bounds how many distinct plays are retained, most recent first.
const Cap = 50

// Recorder accepts play notifications.
type Recorder interface {
	RecordPlay(ctx context.Context, track core.Track) error
}

// QueryLog accepts the user's recent search queries.
type QueryLog interface {
	RecordQuery(query string)
	Recent(n int) []string
}

// MemoryRecorder keeps plays in memory for the lifetime of the process.
// A repeated play moves the track to the front rather than duplicating it.
type MemoryRecorder struct {
	mu     sync.Mutex
	tracks []core.Track
}

// NewMemoryRecorder returns an empty in-memory play history.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

// RecordPlay inserts the track at the front, removing any earlier entry
// with the same id and trimming to Cap.
func (r *MemoryRecorder) RecordPlay(_ context.Context, track core.Track) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := make([]core.Track, 0, len(r.tracks)+1)
	kept = append(kept, track)
	for _, t := range r.tracks {
		if t.ID != track.ID {
			kept = append(kept, t)
		}
	}
	if len(kept) > Cap {
		kept = kept[:Cap]
	}
	r.tracks = kept
	return nil
}

// Recent returns up to n most-recent plays, newest first.
func (r *MemoryRecorder) Recent(n int) []core.Track {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n > len(r.tracks) {
		n = len(r.tracks)
	}
	out := make([]core.Track, n)
	copy(out, r.tracks[:n])
	return out
}

// MemoryQueryLog keeps recent search queries in memory, newest first.
type MemoryQueryLog struct {
	mu      sync.Mutex
	queries []string
}

// NewMemoryQueryLog returns an empty in-memory query log.
func NewMemoryQueryLog() *MemoryQueryLog {
	return &MemoryQueryLog{}
}

// RecordQuery inserts the query at the front, deduplicating and trimming
// like MemoryRecorder does for plays.
func (l *MemoryQueryLog) RecordQuery(query string) {
	if query == "" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := make([]string, 0, len(l.queries)+1)
	kept = append(kept, query)
	for _, q := range l.queries {
		if q != query {
			kept = append(kept, q)
		}
	}
	if len(kept) > Cap {
		kept = kept[:Cap]
	}
	l.queries = kept
}

// Recent returns up to n most-recent queries, newest first.
func (l *MemoryQueryLog) Recent(n int) []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	if n > len(l.queries) {
		n = len(l.queries)
	}
	out := make([]string, n)
	copy(out, l.queries[:n])
	return out
}
