package main

import (
	"os"

	"github.com/audiencelab/leadpipe/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
