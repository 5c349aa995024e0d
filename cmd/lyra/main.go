package main

import (
	"os"

	"github.com/andhika/lyra/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
