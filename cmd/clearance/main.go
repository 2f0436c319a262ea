package main

import (
	"os"

	"github.com/rezonia/einvoice-clearance/cmd/clearance/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
