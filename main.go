package main

import (
	"os"

	"github.com/spigell/linkedin-coach/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
