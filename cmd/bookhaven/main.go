package main

import (
	"os"

	"github.com/bookhaven/bookhaven-cli/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
