package main

import (
	"os"

	"go-migration-audit/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
