package main

import (
	"os"

	"github.com/evanmorse/crisiseval/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
