// Package cmd is the cobra command tree of the agent. Every flag can be given
// in a config file or an environment variable as well, see BindEnvs.
package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/findy-network/findy-didcomm/agent/utils"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "FDC"

var errSubCmdNeeded = errors.New("subcommand needed")

var rootCmd = &cobra.Command{
	Version: utils.Version,
	Use:     "findy-didcomm",
	Short:   "DIDComm v1 agent",
	Long: `
DIDComm v1 agent running the Aries connection, did exchange, issue credential
and present proof protocols.
	`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		utils.ParseLoggingArgs(rootFlags.logging)
		return syncFlags(cmd)
	},
}

// Execute runs the command line and exits with 1 on errors. Cobra has
// printed the error already.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

type RootFlags struct {
	cfgFile string
	dryRun  bool
	logging string
}

var rootFlags = RootFlags{}

var rootEnvs = map[string]string{
	"config":  "CONFIG",
	"logging": "LOGGING",
	"dry-run": "DRY_RUN",
}

func init() {
	defer err2.Catch(err2.Err(func(err error) {
		glog.Errorln("root flags:", err)
	}))

	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&rootFlags.cfgFile, "config", "", flagInfo("configuration file", "", rootEnvs["config"]))
	flags.StringVar(&rootFlags.logging, "logging", "-logtostderr=true -v=2", flagInfo("logging startup arguments", "", rootEnvs["logging"]))
	flags.BoolVarP(&rootFlags.dryRun, "dry-run", "n", false, flagInfo("validate the arguments but don't execute", "", rootEnvs["dry-run"]))

	try.To(viper.BindPFlag("logging", flags.Lookup("logging")))
	try.To(viper.BindPFlag("dry-run", flags.Lookup("dry-run")))
	try.To(BindEnvs(rootEnvs, ""))
}

func initConfig() {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	cfgFile := rootFlags.cfgFile
	if cfgFile == "" {
		cfgFile = os.Getenv(getEnvName("", rootEnvs["config"]))
	}
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			glog.Warningln("config file:", err)
		} else {
			glog.V(1).Infoln("using config file:", viper.ConfigFileUsed())
		}
	}
	rootFlags.logging = viper.GetString("logging")
	rootFlags.dryRun = viper.GetBool("dry-run")
}

// BindEnvs binds the flags of envMap to environment variables. cmdName is
// the middle part of the variable name, empty for the root flags.
func BindEnvs(envMap map[string]string, cmdName string) (err error) {
	defer err2.Handle(&err, "bind envs of %q", cmdName)

	for flagKey, envName := range envMap {
		try.To(viper.BindEnv(flagKey, getEnvName(cmdName, envName)))
	}
	return nil
}

func flagInfo(info, cmdPrefix, envName string) string {
	return info + ", " + getEnvName(cmdPrefix, envName)
}

func getEnvName(cmdName, envName string) string {
	if cmdName == "" {
		return envPrefix + "_" + strings.ToUpper(envName)
	}
	return envPrefix + "_" + strings.ToUpper(cmdName) + "_" + envName
}

// syncFlags sets the flags of the command and its parents from viper, i.e.
// from the environment and the config file. Flags given on the command line
// win.
func syncFlags(cmd *cobra.Command) (err error) {
	defer err2.Handle(&err, "flags of %s", cmd.Name())

	for c := cmd; c != nil; c = c.Parent() {
		flags := c.LocalFlags()
		try.To(viper.BindPFlags(flags))
		if c.PreRunE != nil {
			try.To(c.PreRunE(c, nil))
		}
		flags.VisitAll(func(f *pflag.Flag) {
			if v := viper.GetString(f.Name); v != "" && !f.Changed {
				try.To(flags.Set(f.Name, v))
			}
		})
	}
	return nil
}

// subCmdNeeded is RunE of the abstract commands.
func subCmdNeeded(cmd *cobra.Command, _ []string) error {
	_ = cmd.Help()
	return fmt.Errorf("%w: %s", errSubCmdNeeded, cmd.Name())
}
