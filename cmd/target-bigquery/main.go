// Command target-bigquery reads Singer messages from stdin, loads the
// records into the configured store and writes the last safe state to
// stdout.
package main

import (
	"fmt"
	"os"

	// register every backend with the storage factory; the config picks one.
	_ "bqtarget/internal/storage/all"
)

// Set with -ldflags "-X main.buildVersion=... -X main.buildCommit=...".
var (
	buildVersion = "dev"
	buildCommit  = "none"
)

func main() {
	cmd := newRootCmd(os.Stdin, os.Stdout, os.Stderr)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
