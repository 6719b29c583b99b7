// Package cmd provides the plotctl command tree.
package cmd

import (
	"fmt"
	"time"

	"github.com/mfulz/plotgeist/internal/configcli"
	"github.com/mfulz/plotgeist/internal/logging"
	"github.com/mfulz/plotgeist/internal/plotclient"
	"github.com/mfulz/plotgeist/protocol"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath   string
	overrideAddr string
	target       string
	timeout      time.Duration

	// Set up by the root's PersistentPreRunE.
	client *plotclient.Client
	log    *zap.SugaredLogger
)

// RootCmd is the plotctl entry point.
var RootCmd = &cobra.Command{
	Use:           "plotctl",
	Short:         "Send plot commands to plotd",
	Long:          `plotctl encodes plot commands in plotd's wire format, sends them over TCP and waits for the acknowledgment.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configcli.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("[plotctl] Failed to load config: %w", err)
		}

		log, err = logging.New(cfg.Logger)
		if err != nil {
			return fmt.Errorf("[plotctl] Failed to init logger: %w", err)
		}

		flags := cmd.Flags()
		if flags.Changed("addr") {
			cfg.Addr = overrideAddr
		}
		if flags.Changed("timeout") {
			cfg.Timeout = timeout
		}
		if !flags.Changed("target") {
			target = cfg.Target
		}

		client = plotclient.New(cfg.Addr, cfg.Timeout, log)
		log.Debugw("[plotctl] Using plotd", "addr", client.Addr(), "target", target)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

// send delivers cmds and reports each acknowledgment.
func send(cmd *cobra.Command, cmds ...*protocol.Command) error {
	for _, c := range cmds {
		if err := client.Send(cmd.Context(), c); err != nil {
			return fmt.Errorf("[plotctl] %s to %q: %w", c.Kind(), c.Target(), err)
		}
		cmd.Printf("%s -> %s: acknowledged\n", c.Kind(), c.Target())
	}
	return nil
}

func init() {
	pf := RootCmd.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", "", "path to plotctl.yaml (default: $PLOTGEIST_CTL_CONFIG, ~/.plotgeist/plotctl/plotctl.yaml)")
	pf.StringVar(&overrideAddr, "addr", plotclient.DefaultAddr, "plotd address (host:port)")
	pf.StringVarP(&target, "target", "t", "Plot1", "plot target name")
	pf.DurationVar(&timeout, "timeout", protocol.DefaultReceiveTimeout, "connect and acknowledgment timeout")

	RootCmd.AddCommand(sendCmd, encodeCmd, titleCmd, labelsCmd, clearCmd, debugCmd, pointsCmd)
}
