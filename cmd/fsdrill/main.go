// FSDrill - concurrent filesystem drill tool
package main

import (
	"os"

	"github.com/veldtlabs/fsdrill/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
