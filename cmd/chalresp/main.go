package main

import (
	"os"

	"chalresp/cmd/chalresp/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
