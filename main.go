package main

import (
	"os"

	"github.com/expensedecoder/api/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
