package main

import (
	"os"

	"github.com/flowmesh/a2a-go/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
