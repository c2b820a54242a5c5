package cmd

import (
	"github.com/findy-network/findy-didcomm/cmds/agent"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	"github.com/spf13/cobra"
)

var invitationEnvs = map[string]string{
	"seed":     "SEED",
	"label":    "LABEL",
	"endpoint": "ENDPOINT",
	"exchange": "EXCHANGE",
}

// invitationCmd represents the invitation subcommand
var invitationCmd = &cobra.Command{
	Use:   "invitation",
	Short: "Command for creating a multi-use invitation to the public key",
	Long: `
Command for creating a multi-use invitation to the key of the seed. The agent
started with the same seed answers the requests to it.

Example
	findy-didcomm invitation \
		--seed 000000000000000000000000Steward1 \
		--label faber \
		--endpoint http://localhost:8080/a2a
	`,
	PreRunE: func(cmd *cobra.Command, _ []string) (err error) {
		return BindEnvs(invitationEnvs, cmd.Name())
	},
	RunE: func(cmd *cobra.Command, _ []string) (err error) {
		defer err2.Handle(&err)
		try.To(invitateCmd.Validate())
		if !rootFlags.dryRun {
			cmd.SilenceUsage = true
			try.To1(invitateCmd.Exec(cmd.OutOrStdout()))
		}
		return nil
	},
}

var invitateCmd = agent.InvitationCmd{}

func init() {
	flags := invitationCmd.Flags()
	flags.StringVar(&invitateCmd.Seed, "seed", "", flagInfo("seed of the public key", invitationCmd.Name(), invitationEnvs["seed"]))
	flags.StringVar(&invitateCmd.Label, "label", "", flagInfo("invitation label", invitationCmd.Name(), invitationEnvs["label"]))
	flags.StringVar(&invitateCmd.Endpoint, "endpoint", "", flagInfo("service endpoint URL", invitationCmd.Name(), invitationEnvs["endpoint"]))
	flags.BoolVar(&invitateCmd.Exchange, "exchange", false, flagInfo("out-of-band invitation to did exchange", invitationCmd.Name(), invitationEnvs["exchange"]))

	rootCmd.AddCommand(invitationCmd)
}
