package main

import (
	"fmt"
	"os"

	"github.com/Estebaan93/RunnConnectAPI/config"
	"github.com/spf13/cobra"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:           "runnconnect",
	Short:         "Race registration admission and payment lifecycle service",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		return err
	},
}

func main() {
	rootCmd.AddCommand(serveCmd, migrateCmd, tokenCmd, auditCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
