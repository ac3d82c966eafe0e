package main

import (
	"os"

	"invoicedesk/internal/cli"
)

func main() {
	if err := cli.NewRootCommand(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}
