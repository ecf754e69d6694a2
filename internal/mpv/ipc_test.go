package mpv

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// fakeServer answers mpv IPC requests on the far end of a net.Pipe.
type fakeServer struct {
	conn net.Conn
	// respond maps a command name to the data payload to reply with.
	respond func(cmd []any) (data any, errStr string)
}

func (s *fakeServer) run(t *testing.T) {
	t.Helper()
	scanner := bufio.NewScanner(s.conn)
	for scanner.Scan() {
		var req struct {
			Command   []any `json:"command"`
			RequestID int64 `json:"request_id"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			t.Errorf("server: bad request: %v", err)
			return
		}
		data, errStr := s.respond(req.Command)
		if errStr == "" {
			errStr = "success"
		}
		reply := map[string]any{"request_id": req.RequestID, "error": errStr}
		if data != nil {
			reply["data"] = data
		}
		b, _ := json.Marshal(reply)
		fmt.Fprintf(s.conn, "%s\n", b)
	}
}

func (s *fakeServer) sendEvent(t *testing.T, ev map[string]any) {
	t.Helper()
	b, _ := json.Marshal(ev)
	if _, err := fmt.Fprintf(s.conn, "%s\n", b); err != nil {
		t.Errorf("server: send event: %v", err)
	}
}

func newTestConn(t *testing.T, respond func(cmd []any) (any, string)) (*conn, *fakeServer) {
	t.Helper()
	client, server := net.Pipe()
	srv := &fakeServer{conn: server, respond: respond}
	go srv.run(t)
	c := newConn(client, zerolog.Nop())
	t.Cleanup(func() {
		c.Close()
		server.Close()
	})
	return c, srv
}

func TestCommandRoundTrip(t *testing.T) {
	c, _ := newTestConn(t, func(cmd []any) (any, string) {
		if cmd[0] != "get_property" || cmd[1] != "time-pos" {
			t.Errorf("command = %v, want [get_property time-pos]", cmd)
		}
		return 42.5, ""
	})

	var secs float64
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := c.command(ctx, &secs, "get_property", "time-pos"); err != nil {
		t.Fatalf("command() error = %v", err)
	}
	if secs != 42.5 {
		t.Errorf("data = %v, want 42.5", secs)
	}
}

func TestCommandError(t *testing.T) {
	c, _ := newTestConn(t, func(cmd []any) (any, string) {
		return nil, "property unavailable"
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := c.command(ctx, nil, "get_property", "time-pos")
	if err == nil {
		t.Fatal("command() error = nil, want property unavailable")
	}
}

func TestEventsInterleaveWithReplies(t *testing.T) {
	c, srv := newTestConn(t, func(cmd []any) (any, string) {
		return nil, ""
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := c.command(ctx, nil, "stop"); err != nil {
		t.Fatalf("command() error = %v", err)
	}

	srv.sendEvent(t, map[string]any{"event": "end-file", "reason": "eof"})

	select {
	case ev := <-c.events:
		if ev.Event != "end-file" || ev.Reason != "eof" {
			t.Errorf("event = %+v, want end-file/eof", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("event never delivered")
	}
}

func TestCommandFailsAfterClose(t *testing.T) {
	c, _ := newTestConn(t, func(cmd []any) (any, string) { return nil, "" })
	c.Close()

	// Wait for the read loop to notice.
	select {
	case <-c.done:
	case <-time.After(time.Second):
		t.Fatal("read loop never exited")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := c.command(ctx, nil, "stop"); err == nil {
		t.Error("command() after close succeeded, want error")
	}
}

func TestHandleCommands(t *testing.T) {
	var got [][]any
	c, _ := newTestConn(t, func(cmd []any) (any, string) {
		got = append(got, cmd)
		if cmd[0] == "get_property" {
			return 180.0, ""
		}
		return nil, ""
	})

	h := &Handle{logger: zerolog.Nop()}
	h.attach(c)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := h.Load(ctx, "aaaaaaaaaaa"); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if h.CurrentID() != "aaaaaaaaaaa" {
		t.Errorf("CurrentID() = %q, want aaaaaaaaaaa", h.CurrentID())
	}
	if err := h.Pause(ctx); err != nil {
		t.Fatalf("Pause() error = %v", err)
	}
	if err := h.SetVolume(ctx, 1.5); err != nil {
		t.Fatalf("SetVolume() error = %v", err)
	}
	dur, err := h.Duration(ctx)
	if err != nil {
		t.Fatalf("Duration() error = %v", err)
	}
	if dur != 3*time.Minute {
		t.Errorf("Duration() = %v, want 3m", dur)
	}

	want := [][]any{
		{"loadfile", "ytdl://aaaaaaaaaaa", "replace"},
		{"set_property", "pause", true},
		{"set_property", "volume", 100.0},
		{"get_property", "duration"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d commands, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if fmt.Sprint(got[i]) != fmt.Sprint(want[i]) {
			t.Errorf("command[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestHandleNotReady(t *testing.T) {
	h := &Handle{logger: zerolog.Nop()}
	ctx := context.Background()

	if err := h.Play(ctx); err == nil {
		t.Error("Play() before attach succeeded, want not-ready error")
	}
	if _, err := h.Position(ctx); err == nil {
		t.Error("Position() before attach succeeded, want not-ready error")
	}
	// Close on a never-attached handle must be harmless.
	if err := h.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
