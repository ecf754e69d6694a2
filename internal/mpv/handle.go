package mpv

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	strumerrors "github.com/mkessler/strum/internal/errors"
)

// Handle is an attached mpv session. It implements player.Handle.
//
// The IPC connection is established asynchronously after the process
// spawns; until then commands fail with ErrEngineNotReady. The binding
// never issues commands before the ready event, so callers only see that
// error if they race disposal.
type Handle struct {
	logger zerolog.Logger

	mu         sync.Mutex
	conn       *conn
	proc       *os.Process
	currentID  string
	socketPath string
}

func (h *Handle) ipc() (*conn, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conn == nil {
		return nil, strumerrors.ErrEngineNotReady
	}
	return h.conn, nil
}

// attach wires in the connection once the socket dial succeeds.
func (h *Handle) attach(c *conn) {
	h.mu.Lock()
	h.conn = c
	h.mu.Unlock()
}

// Play unpauses the loaded track.
func (h *Handle) Play(ctx context.Context) error {
	c, err := h.ipc()
	if err != nil {
		return err
	}
	return c.command(ctx, nil, "set_property", "pause", false)
}

// Pause pauses playback.
func (h *Handle) Pause(ctx context.Context) error {
	c, err := h.ipc()
	if err != nil {
		return err
	}
	return c.command(ctx, nil, "set_property", "pause", true)
}

// Load replaces the playing track. mpv resolves the stream itself through
// yt-dlp, so only the watch id crosses the boundary.
func (h *Handle) Load(ctx context.Context, trackID string) error {
	c, err := h.ipc()
	if err != nil {
		return err
	}
	if err := c.command(ctx, nil, "loadfile", "ytdl://"+trackID, "replace"); err != nil {
		return err
	}
	h.mu.Lock()
	h.currentID = trackID
	h.mu.Unlock()
	return nil
}

// SeekTo jumps to an absolute position.
func (h *Handle) SeekTo(ctx context.Context, pos time.Duration) error {
	c, err := h.ipc()
	if err != nil {
		return err
	}
	return c.command(ctx, nil, "seek", pos.Seconds(), "absolute")
}

// SetVolume sets the output volume; v is in [0, 1], mpv wants 0-100.
func (h *Handle) SetVolume(ctx context.Context, v float64) error {
	c, err := h.ipc()
	if err != nil {
		return err
	}
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return c.command(ctx, nil, "set_property", "volume", v*100)
}

// Position returns the current playback position.
func (h *Handle) Position(ctx context.Context) (time.Duration, error) {
	c, err := h.ipc()
	if err != nil {
		return 0, err
	}
	var secs float64
	if err := c.command(ctx, &secs, "get_property", "time-pos"); err != nil {
		return 0, err
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// Duration returns the loaded track's duration, 0 when mpv doesn't know
// it yet.
func (h *Handle) Duration(ctx context.Context) (time.Duration, error) {
	c, err := h.ipc()
	if err != nil {
		return 0, err
	}
	var secs float64
	if err := c.command(ctx, &secs, "get_property", "duration"); err != nil {
		return 0, err
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// CurrentID returns the id of the track mpv holds.
func (h *Handle) CurrentID() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.currentID
}

// Stop halts playback and leaves mpv idle.
func (h *Handle) Stop(ctx context.Context) error {
	c, err := h.ipc()
	if err != nil {
		return err
	}
	return c.command(ctx, nil, "stop")
}

// Close asks mpv to quit, closes the IPC stream and reaps the process.
// Safe to call more than once.
func (h *Handle) Close() error {
	h.mu.Lock()
	c := h.conn
	proc := h.proc
	sock := h.socketPath
	h.conn = nil
	h.proc = nil
	h.mu.Unlock()

	if c != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		if err := c.command(ctx, nil, "quit"); err != nil {
			h.logger.Debug().Err(err).Msg("mpv quit command failed")
		}
		cancel()
		c.Close()
	}
	if proc != nil {
		done := make(chan struct{})
		go func() {
			proc.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(3 * time.Second):
			h.logger.Warn().Msg("mpv did not exit, killing")
			proc.Kill()
			<-done
		}
	}
	if sock != "" {
		os.Remove(sock)
	}
	return nil
}
