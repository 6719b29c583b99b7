package listener

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/mfulz/plotgeist/dispatch"
	"github.com/mfulz/plotgeist/internal/mailbox"
	"github.com/mfulz/plotgeist/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Port = 0
	cfg.ReceiveTimeout = time.Second
	return cfg
}

func startServer(t *testing.T, cfg Config) (*Server, *mailbox.Mailbox) {
	t.Helper()
	mb := mailbox.New()
	srv := New(cfg, mb, zaptest.NewLogger(t).Sugar())
	require.NoError(t, srv.Start(context.Background()))
	t.Cleanup(func() {
		srv.Stop()
		srv.Wait()
	})
	return srv, mb
}

// exchange writes payload, then reads until the server closes the connection.
func exchange(t *testing.T, addr net.Addr, payload []byte) string {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr.String(), 2*time.Second)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write(payload)
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	// A reset after a rejected message is fine; only the bytes matter.
	reply, _ := io.ReadAll(conn)
	return string(reply)
}

func encode(t *testing.T, cmd *protocol.Command) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, protocol.NewEncoder(&buf).WriteCommand(cmd))
	return buf.Bytes()
}

func plot1Points() *protocol.Command {
	cmd := protocol.NewCommand()
	cmd.SetTarget("Plot1")
	cmd.SetKind(protocol.KindPoints)
	cmd.SetFloatVector("x", []float32{1, 2, 3})
	return cmd
}

func TestServerDeliversCommandToHandler(t *testing.T) {
	srv, mb := startServer(t, testConfig())
	assert.True(t, srv.Running())

	reply := exchange(t, srv.Addr(), encode(t, plot1Points()))
	assert.Equal(t, protocol.Ack, reply)
	require.True(t, mb.IsPending())

	d := dispatch.New(zaptest.NewLogger(t).Sugar())
	var got []*protocol.Command
	d.Register("Plot1", func(cmd *protocol.Command) { got = append(got, cmd) })

	assert.True(t, d.Poll(mb))
	assert.False(t, d.Poll(mb))
	require.Len(t, got, 1)
	assert.Equal(t, protocol.KindPoints, got[0].Kind())
	x, _ := got[0].FloatVector("x")
	assert.Equal(t, []float32{1, 2, 3}, x)
	assert.Equal(t, uint64(1), srv.Served())
}

func TestServerKeepsListeningAfterMalformedCommand(t *testing.T) {
	srv, mb := startServer(t, testConfig())

	bad := fmt.Sprintf("%10d%s%10d%10d%10d%10d", 5, "Plot1", 99, 0, 0, 0)
	assert.Empty(t, exchange(t, srv.Addr(), []byte(bad)))
	assert.False(t, mb.IsPending())

	assert.Equal(t, protocol.Ack, exchange(t, srv.Addr(), encode(t, plot1Points())))
	assert.True(t, mb.IsPending())
	assert.Equal(t, uint64(1), srv.Rejected())
	assert.Equal(t, uint64(1), srv.Served())
}

func TestServerDropsPartialMessageAfterTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.ReceiveTimeout = 100 * time.Millisecond
	srv, mb := startServer(t, cfg)

	conn, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	// The full target name never arrives.
	_, err = conn.Write([]byte(fmt.Sprintf("%10d%s", 5, "Plo")))
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	reply, _ := io.ReadAll(conn)
	assert.Empty(t, reply)
	assert.False(t, mb.IsPending())
	assert.Equal(t, uint64(1), srv.Rejected())
}

func TestServerLatestCommandWins(t *testing.T) {
	srv, mb := startServer(t, testConfig())

	for _, title := range []string{"first", "second"} {
		cmd := protocol.NewCommand()
		cmd.SetTarget("Plot1")
		cmd.SetKind(protocol.KindTitle)
		cmd.SetString("mainTitle", title)
		require.Equal(t, protocol.Ack, exchange(t, srv.Addr(), encode(t, cmd)))
	}

	cmd, ok := mb.Take()
	require.True(t, ok)
	title, _ := cmd.String("mainTitle")
	assert.Equal(t, "second", title)
	_, ok = mb.Take()
	assert.False(t, ok)
}

func TestStartFailsWhenPortIsTaken(t *testing.T) {
	occupied, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer occupied.Close()

	cfg := testConfig()
	cfg.Port = occupied.Addr().(*net.TCPAddr).Port

	srv := New(cfg, mailbox.New(), zaptest.NewLogger(t).Sugar())
	err = srv.Start(context.Background())
	assert.ErrorIs(t, err, ErrBind)
	assert.False(t, srv.Running())
	assert.Nil(t, srv.Addr())

	// Wait must not block on a server that never started.
	srv.Wait()
}

func TestStartTwiceFails(t *testing.T) {
	srv, _ := startServer(t, testConfig())
	assert.Error(t, srv.Start(context.Background()))
}

func TestStopUnblocksAccept(t *testing.T) {
	mb := mailbox.New()
	srv := New(testConfig(), mb, zaptest.NewLogger(t).Sugar())
	require.NoError(t, srv.Start(context.Background()))
	addr := srv.Addr().String()

	srv.Stop()
	waited := make(chan struct{})
	go func() {
		srv.Wait()
		close(waited)
	}()

	select {
	case <-waited:
	case <-time.After(2 * time.Second):
		t.Fatal("accept loop did not exit after Stop")
	}
	assert.False(t, srv.Running())

	_, err := net.DialTimeout("tcp", addr, 500*time.Millisecond)
	assert.Error(t, err)
}

func TestContextCancelStopsServer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := New(testConfig(), mailbox.New(), nil)
	require.NoError(t, srv.Start(ctx))

	cancel()
	waited := make(chan struct{})
	go func() {
		srv.Wait()
		close(waited)
	}()

	select {
	case <-waited:
	case <-time.After(2 * time.Second):
		t.Fatal("accept loop did not exit after cancel")
	}
}

func TestAcceptRateStillServes(t *testing.T) {
	cfg := testConfig()
	cfg.AcceptRate = 1000
	cfg.AcceptBurst = 2
	srv, mb := startServer(t, cfg)

	for i := 0; i < 3; i++ {
		cmd := plot1Points()
		cmd.SetString("seq", strconv.Itoa(i))
		require.Equal(t, protocol.Ack, exchange(t, srv.Addr(), encode(t, cmd)))
	}

	cmd, ok := mb.Take()
	require.True(t, ok)
	seq, _ := cmd.String("seq")
	assert.Equal(t, "2", seq)
	assert.Equal(t, uint64(3), srv.Served())
}
