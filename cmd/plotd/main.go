// Command plotd is the plot server daemon. It listens for plot commands on
// TCP, keeps the latest one in the mailbox and dispatches it to the plots of
// the configured targets on every poll tick. It stops on SIGINT or SIGTERM.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mfulz/plotgeist/internal/configd"
	"github.com/mfulz/plotgeist/internal/logging"
	"github.com/spf13/cobra"
)

var (
	configPath  string
	portFlag    int
	addressFlag string
	logLevel    string
)

var rootCmd = &cobra.Command{
	Use:           "plotd",
	Short:         "Plot command server",
	Long:          `plotd accepts fixed-width plot commands over TCP and routes them to per-target plots.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configd.Load(configPath)
		if err != nil {
			return fmt.Errorf("[plotd] Failed to load config: %w", err)
		}
		if cmd.Flags().Changed("port") {
			cfg.Listener.Port = portFlag
		}
		if cmd.Flags().Changed("address") {
			cfg.Listener.Address = addressFlag
		}
		if cmd.Flags().Changed("log-level") {
			cfg.Logger.Level = logLevel
		}

		log, err := logging.New(cfg.Logger)
		if err != nil {
			return fmt.Errorf("[plotd] Failed to init logger: %w", err)
		}
		defer func() { _ = log.Sync() }()
		log.Info("[plotd] Configuration loaded successfully")

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		d := newDaemon(cfg, log)
		if err := d.Start(ctx); err != nil {
			return err
		}
		log.Infof("[plotd] Daemon is running on %s. Waiting for plot commands...", d.Addr())

		<-ctx.Done()
		log.Info("[plotd] Termination signal received. Stopping...")
		d.Stop()
		log.Info("[plotd] Shutdown complete. Exiting.")
		return nil
	},
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to plotd.yaml (default: $PLOTGEIST_CONFIG, ~/.plotgeist/plotd/plotd.yaml, /etc/plotgeist/plotd.yaml)")
	rootCmd.Flags().IntVarP(&portFlag, "port", "p", 8080, "TCP port to listen on")
	rootCmd.Flags().StringVarP(&addressFlag, "address", "a", "127.0.0.1", "address to listen on")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
