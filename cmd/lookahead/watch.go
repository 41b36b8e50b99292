package main

import (
	"context"

	"github.com/aretw0/lookahead"
	"github.com/aretw0/lookahead/internal/cli"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Show upcoming events and refresh them when the network file changes",
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

		p.Banner(lookahead.Version)
		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()
		return cli.RunWatch(sigCtx, env, p, position(cmd))
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	addPositionFlags(watchCmd)
	watchCmd.Flags().Float64("speed", 0, "Current speed in km/h, used to color speed limits")
}
