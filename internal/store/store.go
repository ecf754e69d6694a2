// Package store holds the authoritative playback state. Every part of the
// app mutates playback through its command API; the engine binding and the
// UI observe it through snapshots and change notifications.
package store

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mkessler/strum/internal/core"
	"github.com/mkessler/strum/internal/queue"
)

// Store is the single source of truth for playback intent.
// All commands are synchronous against local state and never block;
// engine side effects happen in the binding, which observes changes.
type Store struct {
	mu     sync.Mutex
	state  core.Intent
	pick   func(n int) int
	logger zerolog.Logger

	subs    map[int]chan struct{}
	nextSub int
}

// Option configures a Store.
type Option func(*Store)

// WithVolume sets the initial volume (clamped to [0, 1]).
func WithVolume(v float64) Option {
	return func(s *Store) { s.state.Volume = clampVolume(v) }
}

// WithShuffle sets the initial shuffle flag.
func WithShuffle(on bool) Option {
	return func(s *Store) { s.state.Shuffle = on }
}

// WithRepeat sets the initial repeat mode; invalid modes are ignored.
func WithRepeat(m core.RepeatMode) Option {
	return func(s *Store) {
		if m.Valid() {
			s.state.Repeat = m
		}
	}
}

// withPick overrides the shuffle random source. Test hook.
func withPick(pick func(n int) int) Option {
	return func(s *Store) { s.pick = pick }
}

// New creates a Store with empty state and default volume 0.7.
func New(logger zerolog.Logger, opts ...Option) *Store {
	s := &Store{
		state: core.Intent{
			Volume: 0.7,
			Repeat: core.RepeatOff,
		},
		pick:   rand.IntN,
		logger: logger.With().Str("component", "store").Logger(),
		subs:   make(map[int]chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns a copy of the current intent. The queue slice is copied
// so callers can iterate without holding the store's lock.
func (s *Store) Snapshot() core.Intent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() core.Intent {
	snap := s.state
	if s.state.Current != nil {
		cur := *s.state.Current
		snap.Current = &cur
	}
	snap.Queue = make([]core.Track, len(s.state.Queue))
	copy(snap.Queue, s.state.Queue)
	return snap
}

// Subscribe registers a change-notification channel. The channel carries
// coalesced wakeups, not state; receivers call Snapshot for the state.
// The returned func unsubscribes and must be called exactly once.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan struct{}, 1)
	s.subs[id] = ch

	cancel := func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
	return ch, cancel
}

// notifyLocked wakes all subscribers without blocking. A subscriber that
// already has a pending wakeup does not need another.
func (s *Store) notifyLocked() {
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// PlayTrack makes track current and requests playback from the top.
// Re-playing the already-current track restarts it, matching a user
// re-clicking the current song.
func (s *Store) PlayTrack(track core.Track) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Debug().Str("id", track.ID).Str("title", track.Title).Msg("play track")
	s.playTrackLocked(track)
	s.notifyLocked()
}

func (s *Store) playTrackLocked(track core.Track) {
	s.state.Current = &track
	s.state.Playing = true
	s.state.Position = 0
	s.state.SeekSeq++
}

// TogglePlay flips the play/pause intent. No-op without a current track.
func (s *Store) TogglePlay() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Current == nil {
		s.logger.Debug().Msg("toggle ignored: no current track")
		return
	}
	s.state.Playing = !s.state.Playing
	s.notifyLocked()
}

// SetPlayingExplicit reconciles the play/pause flag with an external
// event without toggling. With no current track it only ever clears.
func (s *Store) SetPlayingExplicit(playing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Current == nil {
		playing = false
	}
	if s.state.Playing == playing {
		return
	}
	s.state.Playing = playing
	s.notifyLocked()
}

// Enqueue appends a track to the queue.
func (s *Store) Enqueue(track core.Track) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Queue = append(s.state.Queue, track)
	s.notifyLocked()
}

// Dequeue removes every queue entry with the given id. The current track
// is unaffected; the queue is independent of it.
func (s *Store) Dequeue(trackID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.state.Queue[:0]
	for _, t := range s.state.Queue {
		if t.ID != trackID {
			kept = append(kept, t)
		}
	}
	if len(kept) == len(s.state.Queue) {
		return
	}
	s.state.Queue = kept
	s.notifyLocked()
}

// ClearQueue removes all queued tracks.
func (s *Store) ClearQueue() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.state.Queue) == 0 {
		return
	}
	s.state.Queue = nil
	s.notifyLocked()
}

// SetRepeat sets the repeat mode; invalid modes are ignored.
func (s *Store) SetRepeat(m core.RepeatMode) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !m.Valid() || s.state.Repeat == m {
		return
	}
	s.state.Repeat = m
	s.notifyLocked()
}

// SetShuffle sets the shuffle flag.
func (s *Store) SetShuffle(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Shuffle == on {
		return
	}
	s.state.Shuffle = on
	s.notifyLocked()
}

// SetVolume sets the volume, clamped to [0, 1].
func (s *Store) SetVolume(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v = clampVolume(v)
	if s.state.Volume == v {
		return
	}
	s.state.Volume = v
	s.notifyLocked()
}

// SeekTo requests a seek. The store only records the intent; the binding
// performs the actual seek when it observes the change.
func (s *Store) SeekTo(pos time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Current == nil {
		return
	}
	if pos < 0 {
		pos = 0
	}
	s.state.Position = pos
	s.state.SeekSeq++
	s.notifyLocked()
}

// SetPosition records the engine's polled position. Unlike SeekTo it does
// not bump the seek sequence, so the binding can tell the two apart.
func (s *Store) SetPosition(pos time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Current == nil || s.state.Position == pos {
		return
	}
	s.state.Position = pos
	s.notifyLocked()
}

// SetTrackDuration backfills the current track's duration when the search
// result didn't carry one. A known duration is never overwritten.
func (s *Store) SetTrackDuration(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Current == nil || s.state.Current.Duration > 0 || d <= 0 {
		return
	}
	s.state.Current.Duration = d
	s.notifyLocked()
}

// Advance skips to the next or previous track per queue policy.
// Skipping with an empty queue or no current track is a safe no-op.
func (s *Store) Advance(dir queue.Direction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := queue.Advance(dir, s.state.Queue, s.state.Current, s.state.Shuffle, s.state.Repeat, s.pick)
	switch out.Kind {
	case queue.Play:
		s.logger.Debug().Str("id", out.Track.ID).Msg("advance to track")
		s.playTrackLocked(out.Track)
	case queue.Restart:
		s.state.Position = 0
		s.state.SeekSeq++
		if out.ForcePlay {
			s.state.Playing = true
		}
	default:
		return
	}
	s.notifyLocked()
}

// Close dismisses the now-playing surface: current track and play intent
// are cleared, the queue survives so the user doesn't lose it.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Current == nil && !s.state.Playing {
		return
	}
	s.state.Current = nil
	s.state.Playing = false
	s.state.Position = 0
	s.notifyLocked()
}

func clampVolume(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
