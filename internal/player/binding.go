package player

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mkessler/strum/internal/core"
	"github.com/mkessler/strum/internal/history"
	"github.com/mkessler/strum/internal/queue"
	"github.com/mkessler/strum/internal/store"
	"github.com/mkessler/strum/internal/youtube"
)

// DefaultPollInterval is how often the binding polls the engine for the
// playback position while a track is playing.
const DefaultPollInterval = 100 * time.Millisecond

// Binding drives an Engine toward the store's playback intent and applies
// engine events back to the store. All engine interaction happens on the
// Run goroutine; commands stay synchronous and never touch the engine.
type Binding struct {
	store   *store.Store
	engine  Engine
	history history.Recorder
	logger  zerolog.Logger

	pollInterval time.Duration
	events       chan Event

	// State below is owned by the Run goroutine.
	handle        Handle
	ready         bool
	loadedID      string
	sessionID     string
	recorded      bool
	enginePlaying bool
	lastSeekSeq   uint64
	lastVolume    float64
	poll          *time.Ticker
	pollC         <-chan time.Time
}

// Option configures a Binding.
type Option func(*Binding)

// WithPollInterval overrides the position-poll cadence.
func WithPollInterval(d time.Duration) Option {
	return func(b *Binding) {
		if d > 0 {
			b.pollInterval = d
		}
	}
}

// New creates a Binding. rec may be nil to disable play-history recording.
func New(st *store.Store, engine Engine, rec history.Recorder, logger zerolog.Logger, opts ...Option) *Binding {
	b := &Binding{
		store:        st,
		engine:       engine,
		history:      rec,
		logger:       logger.With().Str("component", "binding").Logger(),
		pollInterval: DefaultPollInterval,
		events:       make(chan Event, 16),
		lastVolume:   -1,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run reconciles store intent with the engine until ctx is cancelled, then
// disposes the engine session. It must be called exactly once.
func (b *Binding) Run(ctx context.Context) error {
	changes, unsubscribe := b.store.Subscribe()
	defer unsubscribe()

	b.reconcile(ctx)
	for {
		select {
		case <-ctx.Done():
			b.dispose()
			return ctx.Err()
		case <-changes:
			b.reconcile(ctx)
		case ev := <-b.events:
			b.handleEvent(ctx, ev)
		case <-b.pollC:
			b.pollPosition(ctx)
		}
	}
}

// reconcile drives the engine toward the store's current intent. It is
// idempotent: when engine and intent already agree it issues no commands.
func (b *Binding) reconcile(ctx context.Context) {
	snap := b.store.Snapshot()

	if snap.Current == nil {
		b.dispose()
		return
	}

	id := youtube.NormalizeVideoID(snap.Current.ID)
	if !youtube.ValidVideoID(id) {
		// Short-circuit before the engine turns this into an opaque
		// load failure far from the root cause.
		b.logger.Error().Str("id", snap.Current.ID).Msg("refusing malformed video id")
		b.store.SetPlayingExplicit(false)
		return
	}

	if b.handle == nil {
		b.startEngine(ctx, id, snap)
		return
	}
	if !b.ready {
		// Intent is buffered in the store; EventReady re-runs reconcile.
		return
	}

	if b.loadedID != id {
		if err := b.handle.Load(ctx, id); err != nil {
			b.logger.Error().Err(err).Str("id", id).Msg("track load failed")
			b.store.SetPlayingExplicit(false)
			return
		}
		b.loadedID = id
		b.newSession()
		// A fresh load starts at zero, so any pending seek is satisfied.
		b.lastSeekSeq = snap.SeekSeq
	}

	if snap.Volume != b.lastVolume {
		if err := b.handle.SetVolume(ctx, snap.Volume); err != nil {
			b.logger.Warn().Err(err).Msg("set volume failed")
		} else {
			b.lastVolume = snap.Volume
		}
	}

	if snap.SeekSeq != b.lastSeekSeq {
		b.lastSeekSeq = snap.SeekSeq
		if err := b.handle.SeekTo(ctx, snap.Position); err != nil {
			b.logger.Warn().Err(err).Msg("seek failed")
		}
	}

	if snap.Playing != b.enginePlaying {
		if b.handle.CurrentID() != id {
			// The engine holds a different track; this command belongs
			// to a swap still in flight. The post-swap events fix it up.
			return
		}
		var err error
		if snap.Playing {
			err = b.handle.Play(ctx)
		} else {
			err = b.handle.Pause(ctx)
		}
		if err != nil {
			b.logger.Warn().Err(err).Bool("playing", snap.Playing).Msg("play/pause failed")
		}
	}
}

// startEngine lazily starts the engine on the first track the user plays.
func (b *Binding) startEngine(ctx context.Context, id string, snap core.Intent) {
	handle, err := b.engine.Start(ctx, id, b.events)
	if err != nil {
		b.logger.Error().Err(err).Msg("engine start failed")
		b.store.SetPlayingExplicit(false)
		return
	}
	b.handle = handle
	b.ready = false
	b.loadedID = id
	b.newSession()
	b.lastSeekSeq = snap.SeekSeq
	b.lastVolume = -1
}

func (b *Binding) newSession() {
	b.sessionID = uuid.NewString()
	b.recorded = false
}

func (b *Binding) handleEvent(ctx context.Context, ev Event) {
	b.logger.Debug().Stringer("event", ev.Kind).Str("session", b.sessionID).Msg("engine event")

	switch ev.Kind {
	case EventReady:
		b.ready = true
		b.reconcile(ctx)
	case EventStarted:
		if b.staleEvent() {
			return
		}
		b.enginePlaying = true
		b.store.SetPlayingExplicit(true)
		b.startPoll()
		b.recordPlayOnce()
	case EventPaused:
		if b.staleEvent() {
			return
		}
		b.enginePlaying = false
		b.store.SetPlayingExplicit(false)
		b.stopPoll()
	case EventEnded:
		b.enginePlaying = false
		b.stopPoll()
		b.store.SetPlayingExplicit(false)
		b.store.Advance(queue.Next)
	case EventError:
		b.logger.Error().Err(ev.Err).Msg("engine playback error")
		b.enginePlaying = false
		b.stopPoll()
		b.store.SetPlayingExplicit(false)
	}
}

// staleEvent reports whether a play/pause event refers to a track that is
// no longer current. A pause for the previous track must not pause the
// next one after a quick swap.
func (b *Binding) staleEvent() bool {
	if b.handle == nil {
		return true
	}
	snap := b.store.Snapshot()
	if snap.Current == nil {
		return true
	}
	engineID := b.handle.CurrentID()
	if engineID != youtube.NormalizeVideoID(snap.Current.ID) {
		b.logger.Debug().Str("engine_id", engineID).Str("current_id", snap.Current.ID).
			Msg("ignoring stale engine event")
		return true
	}
	return false
}

// recordPlayOnce notifies the history recorder, at most once per play
// session. Fire-and-forget: a failed write is logged and nothing else.
func (b *Binding) recordPlayOnce() {
	if b.recorded || b.history == nil {
		return
	}
	b.recorded = true

	snap := b.store.Snapshot()
	if snap.Current == nil {
		return
	}
	track := *snap.Current
	session := b.sessionID
	logger := b.logger
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := b.history.RecordPlay(ctx, track); err != nil {
			logger.Warn().Err(err).Str("session", session).Msg("record play failed")
		}
	}()
}

func (b *Binding) pollPosition(ctx context.Context) {
	if b.handle == nil || !b.ready {
		return
	}
	pos, err := b.handle.Position(ctx)
	if err != nil {
		b.logger.Debug().Err(err).Msg("position poll failed")
		return
	}
	b.store.SetPosition(pos)

	if snap := b.store.Snapshot(); snap.Current != nil && snap.Current.Duration == 0 {
		if dur, err := b.handle.Duration(ctx); err == nil {
			b.store.SetTrackDuration(dur)
		}
	}
}

func (b *Binding) startPoll() {
	if b.poll != nil {
		return
	}
	b.poll = time.NewTicker(b.pollInterval)
	b.pollC = b.poll.C
}

// stopPoll is safe to call when polling is already stopped.
func (b *Binding) stopPoll() {
	if b.poll == nil {
		return
	}
	b.poll.Stop()
	b.poll = nil
	b.pollC = nil
}

// dispose stops playback, releases the engine handle and stops polling,
// in that order, so no poll tick can observe a released handle.
func (b *Binding) dispose() {
	if b.handle == nil {
		b.stopPoll()
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := b.handle.Stop(ctx); err != nil {
		b.logger.Debug().Err(err).Msg("engine stop failed")
	}
	if err := b.handle.Close(); err != nil {
		b.logger.Debug().Err(err).Msg("engine close failed")
	}
	b.handle = nil
	b.ready = false
	b.loadedID = ""
	b.enginePlaying = false
	b.stopPoll()
}
