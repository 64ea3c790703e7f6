package main

import (
	"os"

	"github.com/arcflow-dev/orc/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
