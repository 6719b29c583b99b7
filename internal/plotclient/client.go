// Package plotclient sends plot commands to a running plotd. It is used by
// plotctl and by anything else that wants to feed a plot over TCP.
package plotclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/mfulz/plotgeist/internal/logging"
	"github.com/mfulz/plotgeist/protocol"
	"go.uber.org/zap"
)

// ErrNoAck is returned when the server closed the connection without
// acknowledging the command.
var ErrNoAck = errors.New("plotclient: command not acknowledged")

const DefaultAddr = "127.0.0.1:8080"

// Client talks to one plotd instance. Every Send uses a fresh connection.
type Client struct {
	addr    string
	timeout time.Duration
	log     *zap.SugaredLogger
}

// New creates a client for addr. A non-positive timeout selects the
// protocol's receive timeout.
func New(addr string, timeout time.Duration, log *zap.SugaredLogger) *Client {
	if addr == "" {
		addr = DefaultAddr
	}
	if timeout <= 0 {
		timeout = protocol.DefaultReceiveTimeout
	}
	return &Client{addr: addr, timeout: timeout, log: logging.OrNop(log)}
}

func (c *Client) Addr() string { return c.addr }

// Send encodes cmd, writes it and waits for the acknowledgment.
func (c *Client) Send(ctx context.Context, cmd *protocol.Command) error {
	var buf bytes.Buffer
	if err := protocol.NewEncoder(&buf).WriteCommand(cmd); err != nil {
		return fmt.Errorf("encode command: %w", err)
	}

	d := net.Dialer{Timeout: c.timeout}
	conn, err := d.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return fmt.Errorf("failed to connect to plotd at %s: %w", c.addr, err)
	}
	defer conn.Close()

	deadline := time.Now().Add(c.timeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return fmt.Errorf("set deadline: %w", err)
	}

	if _, err := conn.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to send command: %w", err)
	}
	c.log.Debugw("[plotclient] Command sent",
		"addr", c.addr, "target", cmd.Target(), "kind", cmd.Kind().String(), "bytes", buf.Len())

	ack := make([]byte, len(protocol.Ack))
	if n, err := io.ReadFull(conn, ack); err != nil {
		return fmt.Errorf("%w: read %d of %d bytes: %w", ErrNoAck, n, len(ack), err)
	}
	if string(ack) != protocol.Ack {
		return fmt.Errorf("%w: unexpected reply %q", ErrNoAck, ack)
	}
	return nil
}

// SendAll sends cmds in order and stops at the first failure.
func (c *Client) SendAll(ctx context.Context, cmds []*protocol.Command) error {
	for i, cmd := range cmds {
		if err := c.Send(ctx, cmd); err != nil {
			return fmt.Errorf("command %d (%s to %q): %w", i+1, cmd.Kind(), cmd.Target(), err)
		}
	}
	return nil
}
