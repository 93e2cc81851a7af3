package main

import (
	"os"

	"github.com/abhisek/sketchbook/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
