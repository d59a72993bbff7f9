package main

import (
	"fmt"
	"os"

	"github.com/crucial707/gearbox/cmd/cli/root"
)

func main() {
	if err := root.New().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
