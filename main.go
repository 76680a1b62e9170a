package main

import (
	"os"

	"github.com/M-casado/watercolour-processing/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
