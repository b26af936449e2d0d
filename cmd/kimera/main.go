package main

import (
	"os"

	"github.com/kimeraswm/kimera/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
