// Command plotctl sends plot commands to a running plotd: titles, axis labels,
// points, clear and debug, or whole command sequences from YAML files.
package main

import (
	"fmt"
	"os"

	"github.com/mfulz/plotgeist/cmd/plotctl/cmd"
)

func main() {
	if err := cmd.RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
