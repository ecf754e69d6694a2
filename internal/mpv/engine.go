// Package mpv runs mpv as the external playback engine, controlled over
// its line-delimited JSON IPC socket. mpv owns all audio work; this
// package only tells it what to play and relays its lifecycle events.
package mpv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	strumerrors "github.com/mkessler/strum/internal/errors"
	"github.com/mkessler/strum/internal/player"
)

const (
	defaultDialTimeout = 10 * time.Second
	dialRetryInterval  = 100 * time.Millisecond
)

// Engine spawns and attaches mpv sessions. It implements player.Engine.
type Engine struct {
	path        string
	socketDir   string
	dialTimeout time.Duration
	logger      zerolog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithSocketDir overrides where the IPC socket is created.
func WithSocketDir(dir string) EngineOption {
	return func(e *Engine) {
		if dir != "" {
			e.socketDir = dir
		}
	}
}

// WithDialTimeout overrides how long to wait for mpv's socket to appear.
func WithDialTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.dialTimeout = d
		}
	}
}

// NewEngine creates an Engine using the given mpv binary ("mpv" if empty).
func NewEngine(path string, logger zerolog.Logger, opts ...EngineOption) *Engine {
	if path == "" {
		path = "mpv"
	}
	e := &Engine{
		path:        path,
		socketDir:   os.TempDir(),
		dialTimeout: defaultDialTimeout,
		logger:      logger.With().Str("component", "mpv").Logger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start spawns an idle mpv with an IPC socket and returns immediately.
// Connecting, loading the first track and readiness signaling all happen
// asynchronously; the caller gets an EventReady (or EventError) on events.
func (e *Engine) Start(ctx context.Context, trackID string, events chan<- player.Event) (player.Handle, error) {
	sock := filepath.Join(e.socketDir, fmt.Sprintf("strum-mpv-%s.sock", uuid.NewString()[:8]))

	cmd := exec.Command(e.path,
		"--no-video",
		"--idle=yes",
		"--really-quiet",
		"--no-terminal",
		"--ytdl=yes",
		"--ytdl-format=bestaudio/best",
		"--input-ipc-server="+sock,
	)
	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", strumerrors.ErrEngineNotFound, e.path)
		}
		return nil, fmt.Errorf("start mpv: %w", err)
	}
	e.logger.Debug().Int("pid", cmd.Process.Pid).Str("socket", sock).Msg("mpv spawned")

	h := &Handle{
		logger:     e.logger,
		proc:       cmd.Process,
		socketPath: sock,
		currentID:  trackID,
	}
	go e.connect(ctx, h, sock, trackID, events)
	return h, nil
}

// connect waits for mpv's socket, attaches, loads the first track and then
// relays events until the session ends.
func (e *Engine) connect(ctx context.Context, h *Handle, sock, trackID string, events chan<- player.Event) {
	c, err := e.dial(ctx, sock)
	if err != nil {
		e.logger.Error().Err(err).Msg("mpv ipc connect failed")
		send(ctx, events, player.Event{Kind: player.EventError, Err: err})
		h.Close()
		return
	}
	h.attach(c)

	setupCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.command(setupCtx, nil, "observe_property", 1, "pause"); err != nil {
		e.logger.Warn().Err(err).Msg("observe pause failed")
	}
	if err := c.command(setupCtx, nil, "loadfile", "ytdl://"+trackID, "replace"); err != nil {
		e.logger.Error().Err(err).Str("id", trackID).Msg("initial load failed")
		send(ctx, events, player.Event{Kind: player.EventError, Err: err})
		h.Close()
		return
	}

	send(ctx, events, player.Event{Kind: player.EventReady})
	e.forward(ctx, c, events)
}

// dial retries until mpv creates its socket or the timeout expires.
func (e *Engine) dial(ctx context.Context, sock string) (*conn, error) {
	deadline := time.Now().Add(e.dialTimeout)
	for {
		nc, err := net.DialTimeout("unix", sock, time.Second)
		if err == nil {
			return newConn(nc, e.logger), nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("mpv socket never appeared: %w", err)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(dialRetryInterval):
		}
	}
}

// forward translates mpv events into player events until the connection
// or the context ends.
func (e *Engine) forward(ctx context.Context, c *conn, events chan<- player.Event) {
	// observe_property echoes the current value immediately; that initial
	// pause=false must not look like playback starting.
	sawInitialPause := false

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case ev := <-c.events:
			switch ev.Event {
			case "file-loaded":
				send(ctx, events, player.Event{Kind: player.EventStarted})
			case "property-change":
				if ev.Name != "pause" {
					continue
				}
				if !sawInitialPause {
					sawInitialPause = true
					continue
				}
				var paused bool
				if err := json.Unmarshal(ev.Data, &paused); err != nil {
					continue
				}
				kind := player.EventStarted
				if paused {
					kind = player.EventPaused
				}
				send(ctx, events, player.Event{Kind: kind})
			case "end-file":
				switch ev.Reason {
				case "eof":
					send(ctx, events, player.Event{Kind: player.EventEnded})
				case "error":
					send(ctx, events, player.Event{
						Kind: player.EventError,
						Err:  fmt.Errorf("mpv playback error"),
					})
				}
			}
		}
	}
}

func send(ctx context.Context, events chan<- player.Event, ev player.Event) {
	select {
	case events <- ev:
	case <-ctx.Done():
	}
}
