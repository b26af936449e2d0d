package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Build metadata, injected through -ldflags.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show build version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("kimera %s\ncommit %s, built %s\n", Version, Commit, BuildDate)
	},
}

// VersionString is the short form the serve command hands to the health
// endpoint.
func VersionString() string {
	return fmt.Sprintf("%s (%s)", Version, Commit)
}
