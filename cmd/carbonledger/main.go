// Command carbonledger is the CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/rshade/carbonledger/internal/cli"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := cli.NewRootCmd(version).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
