// Command docqa answers questions strictly from an ingested PDF.
package main

import (
	"os"

	"github.com/custodia-labs/docqa/internal/adapters/driving/cli"
	"github.com/custodia-labs/docqa/internal/app"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cli.SetVersion(version)
	cli.SetRuntimeFactory(app.New)

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
