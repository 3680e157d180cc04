package main

import (
	"fmt"
	"os"

	"flock-insights/cmd/flock-insights/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
