package main

import (
	"os"

	"github.com/learnedge/learnedge/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
