package main

import (
	"os"

	"github.com/Talha76/Together/cmd/together/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
