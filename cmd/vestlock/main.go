// Command vestlock validates transitions of time-locked vesting records.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/vestlock/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
