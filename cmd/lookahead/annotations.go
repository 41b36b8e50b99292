package main

import (
	"github.com/aretw0/lookahead/internal/cli"
	"github.com/spf13/cobra"
)

var annotationsCmd = &cobra.Command{
	Use:   "annotations <segment>",
	Short: "Show the indexed annotations of a segment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newPrinter(cmd)
		if err != nil {
			return err
		}
		env, err := loadEnvironment(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		return cli.RunAnnotations(cmd.Context(), env, p, args[0])
	},
}

func init() {
	rootCmd.AddCommand(annotationsCmd)
}
