package main

import (
	"os"

	"github.com/conneroisu/taglint/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
