package player

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/goleak"

	"github.com/mkessler/strum/internal/core"
	"github.com/mkessler/strum/internal/store"
)

type fakeHandle struct {
	currentID string
	volume    float64
	seekedTo  time.Duration
	position  time.Duration
	duration  time.Duration

	loads  int
	plays  int
	pauses int
	seeks  int
	stops  int
	closed bool
}

func (h *fakeHandle) Play(context.Context) error  { h.plays++; return nil }
func (h *fakeHandle) Pause(context.Context) error { h.pauses++; return nil }

func (h *fakeHandle) Load(_ context.Context, trackID string) error {
	h.loads++
	h.currentID = trackID
	return nil
}

func (h *fakeHandle) SeekTo(_ context.Context, pos time.Duration) error {
	h.seeks++
	h.seekedTo = pos
	return nil
}

func (h *fakeHandle) SetVolume(_ context.Context, v float64) error { h.volume = v; return nil }

func (h *fakeHandle) Position(context.Context) (time.Duration, error) { return h.position, nil }
func (h *fakeHandle) Duration(context.Context) (time.Duration, error) { return h.duration, nil }
func (h *fakeHandle) CurrentID() string                               { return h.currentID }
func (h *fakeHandle) Stop(context.Context) error                      { h.stops++; return nil }
func (h *fakeHandle) Close() error                                    { h.closed = true; return nil }

type fakeEngine struct {
	handle   *fakeHandle
	starts   int
	startErr error
	events   chan<- Event
}

func (e *fakeEngine) Start(_ context.Context, trackID string, events chan<- Event) (Handle, error) {
	e.starts++
	if e.startErr != nil {
		return nil, e.startErr
	}
	e.events = events
	e.handle = &fakeHandle{currentID: trackID}
	return e.handle, nil
}

type chanRecorder struct {
	recs chan core.Track
}

func (r *chanRecorder) RecordPlay(_ context.Context, t core.Track) error {
	r.recs <- t
	return nil
}

func newTestBinding(rec *chanRecorder) (*store.Store, *fakeEngine, *Binding) {
	st := store.New(zerolog.Nop())
	eng := &fakeEngine{}
	var b *Binding
	if rec != nil {
		b = New(st, eng, rec, zerolog.Nop())
	} else {
		b = New(st, eng, nil, zerolog.Nop())
	}
	return st, eng, b
}

func TestCommandsBufferUntilReady(t *testing.T) {
	ctx := context.Background()
	st, eng, b := newTestBinding(nil)

	st.PlayTrack(core.Track{ID: "aaaaaaaaaaa", Title: "A"})
	b.reconcile(ctx)

	if eng.starts != 1 {
		t.Fatalf("engine starts = %d, want 1", eng.starts)
	}
	if eng.handle.plays != 0 {
		t.Errorf("plays before ready = %d, want 0", eng.handle.plays)
	}

	// Further commands before ready must not reach the engine either.
	st.SeekTo(30 * time.Second)
	b.reconcile(ctx)
	if eng.handle.seeks != 0 {
		t.Errorf("seeks before ready = %d, want 0", eng.handle.seeks)
	}

	// Ready flushes the buffered intent: loaded with A and playing.
	b.handleEvent(ctx, Event{Kind: EventReady})
	if eng.handle.currentID != "aaaaaaaaaaa" {
		t.Errorf("engine track = %q, want aaaaaaaaaaa", eng.handle.currentID)
	}
	if eng.handle.plays != 1 {
		t.Errorf("plays after ready = %d, want 1", eng.handle.plays)
	}
	if eng.handle.seeks != 1 || eng.handle.seekedTo != 30*time.Second {
		t.Errorf("seek after ready = %d to %v, want 1 to 30s", eng.handle.seeks, eng.handle.seekedTo)
	}
	b.dispose()
}

func TestLazyStart(t *testing.T) {
	ctx := context.Background()
	st, eng, b := newTestBinding(nil)

	// Non-playback commands never start the engine.
	st.SetVolume(0.4)
	st.Enqueue(core.Track{ID: "aaaaaaaaaaa"})
	b.reconcile(ctx)

	if eng.starts != 0 {
		t.Errorf("engine starts = %d, want 0 before first play", eng.starts)
	}
}

func TestInvalidIDNeverReachesEngine(t *testing.T) {
	ctx := context.Background()
	st, eng, b := newTestBinding(nil)

	st.PlayTrack(core.Track{ID: "not a valid id!"})
	b.reconcile(ctx)

	if eng.starts != 0 {
		t.Errorf("engine starts = %d, want 0 for malformed id", eng.starts)
	}
	snap := st.Snapshot()
	if snap.Playing {
		t.Error("Playing = true, want false after rejected id")
	}
	if snap.Current == nil {
		t.Error("Current cleared, want track kept for retry")
	}
}

func TestStaleStartedEventIgnored(t *testing.T) {
	ctx := context.Background()
	st, _, b := newTestBinding(nil)

	// Engine still holds A while the store already moved on to B, paused.
	b.handle = &fakeHandle{currentID: "aaaaaaaaaaa"}
	b.ready = true
	b.loadedID = "aaaaaaaaaaa"
	st.PlayTrack(core.Track{ID: "bbbbbbbbbbb", Title: "B"})
	st.TogglePlay()

	b.handleEvent(ctx, Event{Kind: EventStarted})

	if st.Snapshot().Playing {
		t.Error("late started event for old track set Playing = true")
	}
	if b.poll != nil {
		t.Error("stale event started the position poll")
	}
	b.dispose()
}

func TestStalePausedEventIgnored(t *testing.T) {
	ctx := context.Background()
	st, _, b := newTestBinding(nil)

	b.handle = &fakeHandle{currentID: "aaaaaaaaaaa"}
	b.ready = true
	b.loadedID = "aaaaaaaaaaa"
	st.PlayTrack(core.Track{ID: "bbbbbbbbbbb", Title: "B"})

	b.handleEvent(ctx, Event{Kind: EventPaused})

	if !st.Snapshot().Playing {
		t.Error("late paused event for old track cleared Playing")
	}
	b.dispose()
}

func TestEndedAutoAdvances(t *testing.T) {
	ctx := context.Background()
	st, _, b := newTestBinding(nil)

	st.Enqueue(core.Track{ID: "aaaaaaaaaaa", Title: "A"})
	st.Enqueue(core.Track{ID: "bbbbbbbbbbb", Title: "B"})
	st.PlayTrack(core.Track{ID: "aaaaaaaaaaa", Title: "A"})
	b.handle = &fakeHandle{currentID: "aaaaaaaaaaa"}
	b.ready = true
	b.loadedID = "aaaaaaaaaaa"
	b.startPoll()

	b.handleEvent(ctx, Event{Kind: EventEnded})

	snap := st.Snapshot()
	if snap.Current == nil || snap.Current.ID != "bbbbbbbbbbb" {
		t.Fatalf("Current = %+v, want track bbbbbbbbbbb", snap.Current)
	}
	if !snap.Playing {
		t.Error("Playing = false, want true after auto-advance")
	}
	if b.poll != nil {
		t.Error("poll still running after track end")
	}
	b.dispose()
}

func TestEngineErrorStopsPlaybackKeepsTrack(t *testing.T) {
	ctx := context.Background()
	st, _, b := newTestBinding(nil)

	st.PlayTrack(core.Track{ID: "aaaaaaaaaaa", Title: "A"})
	b.handle = &fakeHandle{currentID: "aaaaaaaaaaa"}
	b.ready = true
	b.loadedID = "aaaaaaaaaaa"
	b.enginePlaying = true

	b.handleEvent(ctx, Event{Kind: EventError, Err: errors.New("decode failed")})

	snap := st.Snapshot()
	if snap.Playing {
		t.Error("Playing = true after engine error, want false")
	}
	if snap.Current == nil || snap.Current.ID != "aaaaaaaaaaa" {
		t.Errorf("Current = %+v, want track kept for retry", snap.Current)
	}
	b.dispose()
}

func TestRecordPlayOncePerSession(t *testing.T) {
	ctx := context.Background()
	rec := &chanRecorder{recs: make(chan core.Track, 4)}
	st, _, b := newTestBinding(rec)

	st.PlayTrack(core.Track{ID: "aaaaaaaaaaa", Title: "A"})
	b.handle = &fakeHandle{currentID: "aaaaaaaaaaa"}
	b.ready = true
	b.loadedID = "aaaaaaaaaaa"
	b.newSession()

	b.handleEvent(ctx, Event{Kind: EventStarted})

	select {
	case got := <-rec.recs:
		if got.ID != "aaaaaaaaaaa" {
			t.Errorf("recorded track = %q, want aaaaaaaaaaa", got.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("play never recorded")
	}

	// A second started event in the same session must not re-record.
	b.handleEvent(ctx, Event{Kind: EventStarted})
	select {
	case <-rec.recs:
		t.Error("repeated started event recorded a second play")
	case <-time.After(50 * time.Millisecond):
	}
	b.dispose()
}

func TestTrackSwapStartsNewSession(t *testing.T) {
	ctx := context.Background()
	rec := &chanRecorder{recs: make(chan core.Track, 4)}
	st, _, b := newTestBinding(rec)

	h := &fakeHandle{currentID: "aaaaaaaaaaa"}
	b.handle = h
	b.ready = true
	b.loadedID = "aaaaaaaaaaa"
	b.newSession()
	st.PlayTrack(core.Track{ID: "aaaaaaaaaaa", Title: "A"})
	b.handleEvent(ctx, Event{Kind: EventStarted})
	<-rec.recs

	st.PlayTrack(core.Track{ID: "bbbbbbbbbbb", Title: "B"})
	b.reconcile(ctx)
	if h.loads != 1 || h.currentID != "bbbbbbbbbbb" {
		t.Fatalf("loads = %d, engine track = %q; want 1, bbbbbbbbbbb", h.loads, h.currentID)
	}

	b.handleEvent(ctx, Event{Kind: EventStarted})
	select {
	case got := <-rec.recs:
		if got.ID != "bbbbbbbbbbb" {
			t.Errorf("recorded track = %q, want bbbbbbbbbbb", got.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("swapped track's play never recorded")
	}
	b.dispose()
}

func TestVolumeAndPauseReconcile(t *testing.T) {
	ctx := context.Background()
	st, eng, b := newTestBinding(nil)

	st.PlayTrack(core.Track{ID: "aaaaaaaaaaa", Title: "A"})
	b.reconcile(ctx)
	b.handleEvent(ctx, Event{Kind: EventReady})
	b.handleEvent(ctx, Event{Kind: EventStarted})

	st.SetVolume(0.25)
	b.reconcile(ctx)
	if eng.handle.volume != 0.25 {
		t.Errorf("engine volume = %v, want 0.25", eng.handle.volume)
	}

	st.TogglePlay()
	b.reconcile(ctx)
	if eng.handle.pauses != 1 {
		t.Errorf("pauses = %d, want 1", eng.handle.pauses)
	}
	b.dispose()
}

func TestPollBackfillsDuration(t *testing.T) {
	ctx := context.Background()
	st, _, b := newTestBinding(nil)

	st.PlayTrack(core.Track{ID: "aaaaaaaaaaa", Title: "A"})
	b.handle = &fakeHandle{
		currentID: "aaaaaaaaaaa",
		position:  12 * time.Second,
		duration:  3 * time.Minute,
	}
	b.ready = true
	b.loadedID = "aaaaaaaaaaa"

	b.pollPosition(ctx)

	snap := st.Snapshot()
	if snap.Position != 12*time.Second {
		t.Errorf("Position = %v, want 12s", snap.Position)
	}
	if snap.Current.Duration != 3*time.Minute {
		t.Errorf("Duration = %v, want 3m", snap.Current.Duration)
	}
	b.dispose()
}

func TestDisposeOrderAndIdempotence(t *testing.T) {
	_, _, b := newTestBinding(nil)

	h := &fakeHandle{currentID: "aaaaaaaaaaa"}
	b.handle = h
	b.ready = true
	b.startPoll()

	b.dispose()
	if h.stops != 1 {
		t.Errorf("stops = %d, want 1", h.stops)
	}
	if !h.closed {
		t.Error("handle not closed")
	}
	if b.handle != nil || b.poll != nil {
		t.Error("dispose left handle or poll behind")
	}

	// Double disposal must be harmless.
	b.dispose()
	b.stopPoll()
}

func TestRunStopsCleanly(t *testing.T) {
	defer goleak.VerifyNone(t)

	st, _, b := newTestBinding(nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	st.PlayTrack(core.Track{ID: "aaaaaaaaaaa", Title: "A"})
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
