// Command venuectl administers and queries the venue partitions.
package main

import (
	"os"

	"github.com/AntonStoeckl/venue-shards-go/cmd/venuectl/commands"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	commands.SetVersionInfo(version, commit)

	// errors are printed by the printer
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
