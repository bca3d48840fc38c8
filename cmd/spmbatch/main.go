// Package main is the spmbatch entry point.
package main

import (
	"os"

	"github.com/scanprobe/spmbatch/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
