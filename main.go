package main

import (
	"os"

	"github.com/jdyer28/LSPI/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
