package cmd

import (
	"time"

	"github.com/findy-network/findy-didcomm/cmds/serve"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	"github.com/spf13/cobra"
)

var serveEnvs = map[string]string{
	"label":             "LABEL",
	"host-address":      "HOST_ADDRESS",
	"host-scheme":       "HOST_SCHEME",
	"host-port":         "HOST_PORT",
	"server-port":       "SERVER_PORT",
	"service-name":      "SERVICE_NAME",
	"psm-database-file": "PSM_DATABASE_FILE",
	"redis-address":     "REDIS_ADDRESS",
	"seed":              "SEED",
	"please-ack":        "PLEASE_ACK",
	"auto-accept":       "AUTO_ACCEPT",
	"janitor-interval":  "JANITOR_INTERVAL",
	"max-run-age":       "MAX_RUN_AGE",
	"send-retry":        "SEND_RETRY",
	"invitation":        "INVITATION",
	"cred-def":          "CRED_DEF",
	"envelope":          "ENVELOPE",
}

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Command for starting the agent",
	Long: `
Starts the agent. It serves the DIDComm endpoint and runs the protocols. With
a seed the agent has a public DID, and it answers the connection and did
exchange requests to it.

Example
	findy-didcomm serve \
		--label faber \
		--host-address localhost \
		--host-port 8080 \
		--seed 000000000000000000000000Steward1 \
		--invitation
	`,
	PreRunE: func(_ *cobra.Command, _ []string) (err error) {
		return BindEnvs(serveEnvs, "SERVE")
	},
	RunE: func(cmd *cobra.Command, _ []string) (err error) {
		defer err2.Handle(&err)

		try.To(sCmd.Validate())
		if !rootFlags.dryRun {
			cmd.SilenceUsage = true
			try.To(sCmd.Exec(cmd.OutOrStdout()))
		}
		return nil
	},
}

var sCmd = serve.Cmd{}

func init() {
	name := serveCmd.Name()
	flags := serveCmd.Flags()
	flags.StringVar(&sCmd.Label, "label", "findy", flagInfo("our label in invitations and requests", name, serveEnvs["label"]))
	flags.StringVar(&sCmd.HostAddr, "host-address", "localhost", flagInfo("host address", name, serveEnvs["host-address"]))
	flags.StringVar(&sCmd.HostScheme, "host-scheme", "http", flagInfo("host scheme", name, serveEnvs["host-scheme"]))
	flags.UintVar(&sCmd.HostPort, "host-port", 8080, flagInfo("host port", name, serveEnvs["host-port"]))
	flags.UintVar(&sCmd.ServerPort, "server-port", 8080, flagInfo("server port", name, serveEnvs["server-port"]))
	flags.StringVar(&sCmd.ServiceName, "service-name", "a2a", flagInfo("URL path of the DIDComm endpoint", name, serveEnvs["service-name"]))
	flags.StringVar(&sCmd.PsmDb, "psm-database-file", "findy.bolt", flagInfo("state machine database's filename", name, serveEnvs["psm-database-file"]))
	flags.StringVar(&sCmd.RedisAddr, "redis-address", "", flagInfo("redis address for the state machine store, instead of the file", name, serveEnvs["redis-address"]))
	flags.StringVar(&sCmd.Seed, "seed", "", flagInfo("seed of the public DID", name, serveEnvs["seed"]))
	flags.StringVar(&sCmd.Envelope, "envelope", serve.EnvelopeLegacy, flagInfo("packer of the wire messages: legacy or aries", name, serveEnvs["envelope"]))
	flags.BoolVar(&sCmd.PleaseAck, "please-ack", false, flagInfo("ask an ack for connection responses", name, serveEnvs["please-ack"]))
	flags.BoolVar(&sCmd.AutoAccept, "auto-accept", false, flagInfo("continue credential and proof runs without local actions", name, serveEnvs["auto-accept"]))
	flags.DurationVar(&sCmd.JanitorInterval, "janitor-interval", 10*time.Minute, flagInfo("how often stale runs are abandoned, zero disables", name, serveEnvs["janitor-interval"]))
	flags.DurationVar(&sCmd.MaxRunAge, "max-run-age", 24*time.Hour, flagInfo("age of a stale run", name, serveEnvs["max-run-age"]))
	flags.DurationVar(&sCmd.SendRetry, "send-retry", 30*time.Second, flagInfo("max time to retry a send", name, serveEnvs["send-retry"]))
	flags.StringSliceVar(&sCmd.CredDefs, "cred-def", nil, flagInfo("cred def on the ledger, repeatable", name, serveEnvs["cred-def"]))
	flags.BoolVar(&sCmd.Invitation, "invitation", false, flagInfo("print the public invitation at startup", name, serveEnvs["invitation"]))

	rootCmd.AddCommand(serveCmd)
}
