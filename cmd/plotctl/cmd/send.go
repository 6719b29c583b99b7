package cmd

import (
	"github.com/mfulz/plotgeist/internal/plotclient"
	"github.com/mfulz/plotgeist/protocol"
	"github.com/spf13/cobra"
)

var commandFile string

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send the commands of a YAML file",
	Long: `Reads one or more YAML documents (separated by ---) describing commands and
sends them in order. Use "-" to read from stdin.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmds, err := plotclient.LoadCommands(commandFile)
		if err != nil {
			return err
		}
		log.Debugf("[plotctl] Loaded %d command(s) from %s", len(cmds), commandFile)
		return send(cmd, cmds...)
	},
}

var encodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Print the wire encoding of a YAML command file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmds, err := plotclient.LoadCommands(commandFile)
		if err != nil {
			return err
		}
		enc := protocol.NewEncoder(cmd.OutOrStdout())
		for _, c := range cmds {
			if err := enc.WriteCommand(c); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{sendCmd, encodeCmd} {
		c.Flags().StringVarP(&commandFile, "file", "f", "", "YAML command file")
		_ = c.MarkFlagRequired("file")
	}
}
