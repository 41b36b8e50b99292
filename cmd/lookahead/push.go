package main

import (
	"context"
	"time"

	"github.com/aretw0/lookahead/internal/cli"
	"github.com/spf13/cobra"
)

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Feed a driver display from a position",
	Long: `Runs the device push loop for a train standing at a position: upcoming speed, grade and
junction items alternate with the consist speed limit on every tick. Each update is written to
stdout as one JSON line.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnvironment(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		length, _ := cmd.Flags().GetFloat64("train-length")
		interval, _ := cmd.Flags().GetDuration("interval")

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()
		return cli.RunPush(sigCtx, env, cli.NewJSONDevice(cmd.OutOrStdout()), position(cmd), length, interval)
	},
}

func init() {
	rootCmd.AddCommand(pushCmd)
	addPositionFlags(pushCmd)
	pushCmd.Flags().Float64("train-length", 200, "Train length in meters, for the consist speed limit")
	pushCmd.Flags().Duration("interval", time.Second, "Time between two pushes")
}
