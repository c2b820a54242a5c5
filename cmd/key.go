package cmd

import (
	"github.com/findy-network/findy-didcomm/cmds/key"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	"github.com/spf13/cobra"
)

// keyCmd represents the key subcommand
var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Parent command for handling keys",
	Long: `
Parent command for handling keys
	`,
	RunE: subCmdNeeded,
}

var keyEnvs = map[string]string{
	"seed": "SEED",
}

// createKeyCmd represents the createkey subcommand
var createKeyCmd = &cobra.Command{
	Use:   "create",
	Short: "Command for creating an Ed25519 key and its DIDs",
	Long: `
Command for creating an Ed25519 key and its DIDs. Prints the verkey, the
Indy style DID and the did:key of it.

Example
	findy-didcomm key create \
		--seed 00000000000000000000thisisa_test
	`,
	PreRunE: func(_ *cobra.Command, _ []string) (err error) {
		return BindEnvs(keyEnvs, "KEY")
	},
	RunE: func(cmd *cobra.Command, _ []string) (err error) {
		defer err2.Handle(&err)
		try.To(keyCreateCmd.Validate())
		if !rootFlags.dryRun {
			try.To1(keyCreateCmd.Exec(cmd.OutOrStdout()))
		}
		return nil
	},
}

var keyCreateCmd = key.CreateCmd{}

func init() {
	createKeyCmd.Flags().StringVar(&keyCreateCmd.Seed, "seed", "", flagInfo("seed for key creation", keyCmd.Name(), keyEnvs["seed"]))

	rootCmd.AddCommand(keyCmd)
	keyCmd.AddCommand(createKeyCmd)
}
