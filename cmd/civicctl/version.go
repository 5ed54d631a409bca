package main

import (
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/civicdex/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("civicctl %s\n", version.String())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
