package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	version string
	commit  string
	date    string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "easel",
	Short: "Easel - collaborative canvas sync engine",
	Long: `Easel keeps a locally-mutable drawing scene in sync with a replicated
shared document so multiple participants can co-edit one canvas.

Local scene mutations are projected into the document; remote document
mutations are applied back onto the scene. Echoes, duplicate writes, and
feedback loops are suppressed by the sync engine's guard state.`,
	Version: version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}
