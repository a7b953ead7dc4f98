package main

import (
	"os"

	"github.com/nerdscourt/canon-core/internal/cli"
)

func main() {
	if err := cli.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
