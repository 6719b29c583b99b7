package main

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/mfulz/plotgeist/internal/configd"
	"github.com/mfulz/plotgeist/internal/listener"
	"github.com/mfulz/plotgeist/internal/plotclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testConfig() *configd.Config {
	lc := listener.DefaultConfig()
	lc.Port = 0
	lc.ReceiveTimeout = time.Second
	return &configd.Config{
		Listener:     lc,
		PollInterval: time.Millisecond,
		Targets:      []string{"Plot1", "Plot2"},
	}
}

func TestDaemonRoutesCommandsToPlots(t *testing.T) {
	d := newDaemon(testConfig(), zaptest.NewLogger(t).Sugar())
	require.NoError(t, d.Start(context.Background()))
	defer d.Stop()

	c := plotclient.New(d.Addr().String(), time.Second, nil)
	require.NoError(t, c.Send(context.Background(), plotclient.TitleCommand("Plot2", "Pressure")))

	p2, ok := d.plots.Get("Plot2")
	require.True(t, ok)
	assert.Eventually(t, func() bool { return p2.State().Title == "Pressure" }, 2*time.Second, 5*time.Millisecond)

	p1, _ := d.plots.Get("Plot1")
	assert.Equal(t, "Plot1", p1.State().Title)

	require.NoError(t, c.Send(context.Background(), plotclient.DebugCommand("Plot1")))
	assert.Eventually(t, func() bool { return p1.State().PointCount() > 0 }, 5*time.Second, 5*time.Millisecond)
}

func TestDaemonStartFailsOnBusyPort(t *testing.T) {
	first := newDaemon(testConfig(), zaptest.NewLogger(t).Sugar())
	require.NoError(t, first.Start(context.Background()))
	defer first.Stop()

	cfg := testConfig()
	cfg.Listener.Port = first.Addr().(*net.TCPAddr).Port

	second := newDaemon(cfg, zaptest.NewLogger(t).Sugar())
	err := second.Start(context.Background())
	assert.ErrorIs(t, err, listener.ErrBind)

	// Stop on a daemon that never started must not block.
	second.Stop()
}
