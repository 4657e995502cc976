package main

import (
	"os"

	"github.com/jodyrakow/triviavanguard-show-mode-sub000/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
