package mpv

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"

	"github.com/rs/zerolog"
)

// response is an mpv JSON IPC command reply.
type response struct {
	RequestID int64           `json:"request_id"`
	Error     string          `json:"error"`
	Data      json.RawMessage `json:"data"`
}

// event is an unsolicited mpv JSON IPC event.
type event struct {
	Event  string          `json:"event"`
	Name   string          `json:"name"`
	Data   json.RawMessage `json:"data"`
	Reason string          `json:"reason"`
}

// conn speaks mpv's line-delimited JSON IPC protocol: requests carry a
// request_id that the reply echoes back, and events arrive interleaved
// with replies on the same stream.
type conn struct {
	nc     net.Conn
	logger zerolog.Logger

	writeMu sync.Mutex
	enc     *json.Encoder

	mu      sync.Mutex
	nextID  int64
	pending map[int64]chan response

	events    chan event
	done      chan struct{}
	closeOnce sync.Once
}

// newConn wraps an established IPC stream and starts its read loop.
func newConn(nc net.Conn, logger zerolog.Logger) *conn {
	c := &conn{
		nc:      nc,
		logger:  logger,
		enc:     json.NewEncoder(nc),
		pending: make(map[int64]chan response),
		events:  make(chan event, 16),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c
}

// command sends an mpv command and waits for its reply. A non-nil result
// receives the reply's data field.
func (c *conn) command(ctx context.Context, result any, args ...any) error {
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	ch := make(chan response, 1)
	c.pending[id] = ch
	c.mu.Unlock()

	req := struct {
		Command   []any `json:"command"`
		RequestID int64 `json:"request_id"`
	}{Command: args, RequestID: id}

	c.writeMu.Lock()
	err := c.enc.Encode(req)
	c.writeMu.Unlock()
	if err != nil {
		c.forget(id)
		return fmt.Errorf("write mpv command: %w", err)
	}

	select {
	case resp := <-ch:
		if resp.Error != "success" {
			return fmt.Errorf("mpv: %s", resp.Error)
		}
		if result != nil && len(resp.Data) > 0 {
			if err := json.Unmarshal(resp.Data, result); err != nil {
				return fmt.Errorf("unmarshal mpv reply: %w", err)
			}
		}
		return nil
	case <-c.done:
		return fmt.Errorf("mpv connection closed")
	case <-ctx.Done():
		c.forget(id)
		return ctx.Err()
	}
}

func (c *conn) forget(id int64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// readLoop demultiplexes replies to their waiting commands and forwards
// events. It exits when the stream closes.
func (c *conn) readLoop() {
	defer close(c.done)

	scanner := bufio.NewScanner(c.nc)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()

		var msg struct {
			Event     string          `json:"event"`
			RequestID *int64          `json:"request_id"`
			Error     string          `json:"error"`
			Data      json.RawMessage `json:"data"`
			Name      string          `json:"name"`
			Reason    string          `json:"reason"`
		}
		if err := json.Unmarshal(line, &msg); err != nil {
			c.logger.Debug().Err(err).Str("line", string(line)).Msg("unparseable ipc message")
			continue
		}

		if msg.Event != "" {
			select {
			case c.events <- event{Event: msg.Event, Name: msg.Name, Data: msg.Data, Reason: msg.Reason}:
			default:
				c.logger.Debug().Str("event", msg.Event).Msg("dropping ipc event, consumer behind")
			}
			continue
		}
		if msg.RequestID == nil {
			continue
		}

		c.mu.Lock()
		ch, ok := c.pending[*msg.RequestID]
		if ok {
			delete(c.pending, *msg.RequestID)
		}
		c.mu.Unlock()
		if ok {
			ch <- response{RequestID: *msg.RequestID, Error: msg.Error, Data: msg.Data}
		}
	}
	if err := scanner.Err(); err != nil {
		c.logger.Debug().Err(err).Msg("ipc read loop ended")
	}
}

// Close shuts the stream down; in-flight commands fail with a closed error.
func (c *conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.nc.Close()
	})
	return err
}
