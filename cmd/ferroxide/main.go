package main

import (
	"fmt"
	"os"

	"github.com/ferroxide/ferroxide/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ferroxide: %v\n", err)
		os.Exit(1)
	}
}
