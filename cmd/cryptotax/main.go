package main

import (
	"os"

	"github.com/dkronst/israel-crypto-tax/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
