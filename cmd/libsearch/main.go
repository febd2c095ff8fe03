// Command libsearch indexes documents and answers semantic paragraph queries.
package main

import (
	"os"

	"github.com/studesprit/libsearch/internal/adapters/driving/cli"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cli.SetVersion(version)
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
