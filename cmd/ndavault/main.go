// Command ndavault stores, searches and tracks NDA contracts.
package main

import (
	"os"

	"github.com/custodia-labs/ndavault/internal/adapters/driving/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
