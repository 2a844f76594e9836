package main

import (
	"os"

	"claim-portal/cmd/api"
	"claim-portal/cmd/claim"
	"claim-portal/cmd/migrate"
	"claim-portal/cmd/reconcile"
	"claim-portal/config"

	"github.com/spf13/cobra"
)

func newCommand() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:          "claimportal",
		Short:        "permit claim portal",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.Load(configFile)
		},
	}
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "yaml file merged over the built-in config")

	cmd.AddCommand(claim.NewCommand())
	cmd.AddCommand(api.NewCommand())
	cmd.AddCommand(reconcile.NewCommand())
	cmd.AddCommand(migrate.NewCommand())
	return cmd
}

func main() {
	cmd := newCommand()
	if err := cmd.Execute(); err != nil {
		os.Exit(-1)
	}
}
