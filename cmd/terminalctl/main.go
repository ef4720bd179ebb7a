package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "terminalctl",
		Short:         "terminalctl - operator tooling for the card terminal",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringP("config", "c", "", "Path to config file (default ./config.yaml)")

	root.AddCommand(tokenCmd())
	root.AddCommand(configCmd())
	root.AddCommand(readerCmd())

	return root
}
