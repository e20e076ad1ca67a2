package main

import (
	"os"

	"github.com/stratamem/strata/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
