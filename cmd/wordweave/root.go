package main

import (
	"os"

	"github.com/LJTian/WordWeave/internal/logger"
	"github.com/LJTian/WordWeave/internal/version"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	logLevel string
	allowEnv bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:          "wordweave",
		Short:        "Weave translated vocabulary into web pages",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.Init(logger.ParseLevel(opts.logLevel), nil)
		},
	}
	cmd.Version = version.Info()
	cmd.SetVersionTemplate("{{.Version}}\n")
	cmd.SetErr(os.Stderr)

	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&opts.allowEnv, "allow-env", true, "Read API keys from environment variables when the keychain has none")

	cmd.AddCommand(
		newTranslateCmd(opts),
		newProbeCmd(opts),
		newAuthCmd(),
		newVersionCmd(),
	)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(version.Info())
		},
	}
}
