package main

import (
	"github.com/aretw0/lookahead/internal/cli"
	"github.com/spf13/cobra"
)

var describeCmd = &cobra.Command{
	Use:   "describe [junction]",
	Short: "Name the branches of junctions",
	Long:  `Names both out branches of a junction after the closest named segment they lead to, and shows which one is selected.`,
	Args:  cobra.MaximumNArgs(1),
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

		var id string
		if len(args) > 0 {
			id = args[0]
		}
		return cli.RunDescribe(env, p, id)
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
}
