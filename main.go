package main

import (
	"os"

	"github.com/mhoffm/shotrelay/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
