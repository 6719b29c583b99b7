package main

import (
	"context"
	"net"
	"sync"

	"github.com/mfulz/plotgeist/dispatch"
	"github.com/mfulz/plotgeist/internal/configd"
	"github.com/mfulz/plotgeist/internal/listener"
	"github.com/mfulz/plotgeist/internal/mailbox"
	"github.com/mfulz/plotgeist/internal/plot"
	"go.uber.org/zap"
)

// daemon wires the listener, the mailbox, the dispatcher and the plots.
type daemon struct {
	cfg *configd.Config
	log *zap.SugaredLogger

	mb         *mailbox.Mailbox
	dispatcher *dispatch.Dispatcher
	plots      *plot.Manager
	server     *listener.Server

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newDaemon(cfg *configd.Config, log *zap.SugaredLogger) *daemon {
	mb := mailbox.New()
	d := &daemon{
		cfg:        cfg,
		log:        log,
		mb:         mb,
		dispatcher: dispatch.New(log),
		plots:      plot.NewManager(log),
		server:     listener.New(cfg.Listener, mb, log),
	}
	d.plots.Attach(d.dispatcher, cfg.Targets...)
	return d
}

// Start binds the listener and starts the poll tick. A bind failure is
// returned and nothing keeps running.
func (d *daemon) Start(ctx context.Context) error {
	if err := d.server.Start(ctx); err != nil {
		return err
	}

	ctx, d.cancel = context.WithCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.dispatcher.Run(ctx, d.mb, d.cfg.PollInterval)
	}()
	return nil
}

func (d *daemon) Addr() net.Addr { return d.server.Addr() }

// Stop shuts the listener down, ends the poll tick and logs what each plot
// holds.
func (d *daemon) Stop() {
	d.server.Stop()
	d.server.Wait()
	if d.cancel != nil {
		d.cancel()
	}
	d.wg.Wait()

	for _, st := range d.plots.States() {
		d.log.Infow("[plotd] Plot state",
			"target", st.Target, "title", st.Title, "batches", len(st.Batches), "points", st.PointCount())
	}
	d.log.Infow("[plotd] Listener totals", "served", d.server.Served(), "rejected", d.server.Rejected())
}
