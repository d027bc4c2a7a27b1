// Command deskflow is the command-line surface of the deskflow document
// store: inspect collection health, export and import data, and manage
// backups.
package main

import (
	"os"
	"strings"

	"deskflow/internal/cli"
)

func main() {
	env := make(map[string]string)

	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}

	os.Exit(cli.Run(os.Stdout, os.Stderr, os.Args, env))
}
