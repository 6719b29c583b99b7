// Package listener provides the TCP side of plotd: it owns the listening
// socket, decodes one command per accepted connection and publishes it to the
// mailbox for the dispatcher.
package listener

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/mfulz/plotgeist/internal/logging"
	"github.com/mfulz/plotgeist/internal/mailbox"
	"github.com/mfulz/plotgeist/protocol"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrBind means the listening socket could not be acquired. It is fatal to
// the server.
var ErrBind = errors.New("listener: cannot bind listening socket")

// acceptBackoff is the pause after a failed accept.
const acceptBackoff = 10 * time.Millisecond

// Config describes where and how the server listens.
type Config struct {
	Address        string          `mapstructure:"address"`         // listen address, loopback by default
	Port           int             `mapstructure:"port"`            // 0 picks a free port
	ReceiveTimeout time.Duration   `mapstructure:"receive_timeout"` // window for each byte run
	AcceptRate     float64         `mapstructure:"accept_rate"`     // connections per second, 0 = unlimited
	AcceptBurst    int             `mapstructure:"accept_burst"`
	Limits         protocol.Limits `mapstructure:"limits"`
}

// DefaultConfig listens on 127.0.0.1:8080 with the protocol's default timeout.
func DefaultConfig() Config {
	return Config{
		Address:        "127.0.0.1",
		Port:           8080,
		ReceiveTimeout: protocol.DefaultReceiveTimeout,
		Limits:         protocol.DefaultLimits(),
	}
}

// Server accepts plot connections one at a time.
type Server struct {
	cfg     Config
	mb      *mailbox.Mailbox
	log     *zap.SugaredLogger
	limiter *rate.Limiter

	mu     sync.Mutex
	ln     net.Listener
	cancel context.CancelFunc
	done   chan struct{}

	running  atomic.Bool
	served   atomic.Uint64
	rejected atomic.Uint64
}

// New creates a server that publishes decoded commands to mb.
func New(cfg Config, mb *mailbox.Mailbox, log *zap.SugaredLogger) *Server {
	if cfg.Address == "" {
		cfg.Address = "127.0.0.1"
	}
	if cfg.ReceiveTimeout <= 0 {
		cfg.ReceiveTimeout = protocol.DefaultReceiveTimeout
	}

	s := &Server{
		cfg: cfg,
		mb:  mb,
		log: logging.OrNop(log),
	}
	if cfg.AcceptRate > 0 {
		burst := cfg.AcceptBurst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.AcceptRate), burst)
	}
	return s
}

// Start binds the listening socket and runs the accept loop on its own
// goroutine. A bind failure is returned wrapped in ErrBind and the server is
// not running afterwards. Cancelling ctx stops the server like Stop.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ln != nil {
		return fmt.Errorf("listener: already started on %s", s.ln.Addr())
	}

	addr := net.JoinHostPort(s.cfg.Address, strconv.Itoa(s.cfg.Port))
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("%w %s: %w", ErrBind, addr, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	s.ln = ln
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running.Store(true)

	s.log.Infof("[listener] Listening on %s", ln.Addr())

	// Closing the socket is what unblocks a pending Accept.
	go func() {
		<-ctx.Done()
		s.running.Store(false)
		_ = ln.Close()
	}()
	go s.serve(ctx, ln, s.done)

	return nil
}

// Stop asks the accept loop to finish and releases the listening socket. A
// connection that is being decoded completes or times out first.
func (s *Server) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Wait blocks until the accept loop has exited.
func (s *Server) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	if done != nil {
		<-done
	}
}

// Running reports whether the accept loop is active.
func (s *Server) Running() bool { return s.running.Load() }

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Served returns how many commands were decoded and published.
func (s *Server) Served() uint64 { return s.served.Load() }

// Rejected returns how many connections were dropped on a decode failure.
func (s *Server) Rejected() uint64 { return s.rejected.Load() }

func (s *Server) serve(ctx context.Context, ln net.Listener, done chan struct{}) {
	defer close(done)
	defer s.running.Store(false)

	for s.running.Load() {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				break
			}
		}

		s.log.Debug("[listener] Waiting for a connection")
		conn, err := ln.Accept()
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				break
			}
			s.log.Warnf("[listener] Accept error: %v", err)
			time.Sleep(acceptBackoff)
			continue
		}
		s.handleConn(conn)
	}

	_ = ln.Close()
	s.log.Info("[listener] Stopped")
}

// handleConn decodes exactly one command from conn, publishes it, sends the
// acknowledgment and closes the connection. Decode failures only cost this
// connection.
func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	log := s.log.With("conn", uuid.NewString(), "remote", conn.RemoteAddr().String())
	log.Debug("[listener] Connection accepted")

	cmd, err := protocol.NewDecoder(conn, s.cfg.ReceiveTimeout, s.cfg.Limits).ReadCommand()
	if err != nil {
		s.rejected.Add(1)
		switch {
		case errors.Is(err, protocol.ErrTimeout):
			log.Warnw("[listener] Receive timed out, dropping connection", "error", err)
		case errors.Is(err, protocol.ErrMalformed):
			log.Warnw("[listener] Malformed command, dropping connection", "error", err)
		default:
			log.Errorw("[listener] Read failed, dropping connection", "error", err)
		}
		return
	}

	s.mb.Publish(cmd)
	s.served.Add(1)
	log.Infow("[listener] Command received", "target", cmd.Target(), "kind", cmd.Kind().String())

	_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.ReceiveTimeout))
	if _, err := io.WriteString(conn, protocol.Ack); err != nil {
		log.Warnw("[listener] Failed to send acknowledgment", "error", err)
	}
}
