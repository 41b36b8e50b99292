package main

import (
	"github.com/aretw0/lookahead/internal/cli"
	"github.com/spf13/cobra"
)

var followCmd = &cobra.Command{
	Use:   "follow",
	Short: "List every raw event over a distance",
	Long:  `Walks the track from a position and lists every event met, in both directions, without filtering.`,
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

		distance, _ := cmd.Flags().GetFloat64("distance")
		return cli.RunFollow(cmd.Context(), env, p, position(cmd), distance)
	},
}

func init() {
	rootCmd.AddCommand(followCmd)
	addPositionFlags(followCmd)
	followCmd.Flags().Float64P("distance", "d", 1000, "Distance to travel, in meters")
}
