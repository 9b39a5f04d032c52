package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/tally/internal/tally/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the tally version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "tally version %s\n", version.Full())
	},
}
