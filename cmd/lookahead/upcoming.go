package main

import (
	"github.com/aretw0/lookahead/internal/cli"
	"github.com/spf13/cobra"
)

var upcomingCmd = &cobra.Command{
	Use:   "upcoming",
	Short: "List what a driver should see ahead",
	Long: `Walks the track from a position and lists upcoming speed limits, grade changes, junctions
and named segments, bounded by track_info.max_event_count and track_info.max_event_span.`,
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

		return cli.RunUpcoming(cmd.Context(), env, p, position(cmd))
	},
}

func init() {
	rootCmd.AddCommand(upcomingCmd)
	addPositionFlags(upcomingCmd)
	upcomingCmd.Flags().Float64("speed", 0, "Current speed in km/h, used to color speed limits")
}
