// Command percival is the command-line driver for the Percival compiler.
package main

import (
	"os"

	"github.com/percival-lang/percival-go/cmd/percival/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
