package cmd

import (
	"fmt"

	"github.com/findy-network/findy-didcomm/agent/utils"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Prints the version of the agent",
	RunE: func(cmd *cobra.Command, _ []string) (err error) {
		defer err2.Handle(&err)

		try.To1(fmt.Fprintln(cmd.OutOrStdout(), utils.Version))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
