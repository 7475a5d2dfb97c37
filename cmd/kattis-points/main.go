// Command kattis-points resolves course goals from a Kattis judge export.
package main

import (
	"fmt"
	"os"

	"github.com/Friduric/kattis-cli/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err == nil {
		return
	}
	// Commands print their own failures in the selected format; only
	// errors they never saw (flag parsing, setup) are printed here.
	if !cli.Reported(err) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
