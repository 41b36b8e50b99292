package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/lookahead"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of lookahead",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "lookahead version %s\n", strings.TrimSpace(lookahead.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
