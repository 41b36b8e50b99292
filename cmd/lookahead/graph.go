package main

import (
	"github.com/aretw0/lookahead/internal/cli"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the network visualization",
	Long:  `Outputs a Mermaid diagram (graph LR) of segments and junctions. With --segment, the route ahead is highlighted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnvironment(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		segment, _ := cmd.Flags().GetString("segment")
		span, _ := cmd.Flags().GetFloat64("span")
		return cli.RunGraph(cmd.Context(), env, cmd.OutOrStdout(), segment, span)
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("segment", "s", "", "Highlight the route ahead of this segment")
	graphCmd.Flags().Float64("span", 5000, "How far ahead to highlight, in meters")
}
