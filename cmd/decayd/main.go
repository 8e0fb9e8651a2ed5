package main

import (
	"os"

	"github.com/voidhouse/decay/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
