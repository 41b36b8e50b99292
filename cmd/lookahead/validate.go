package main

import (
	"fmt"

	"github.com/aretw0/lookahead/internal/cli"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the network for consistency",
	Long:  `Crawls the network from a segment and reports unreachable segments, zero-length segments and junctions whose branches coincide.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnvironment(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		start, _ := cmd.Flags().GetString("start")
		if err := cli.RunValidate(env, start); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Network is valid! ✅")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().String("start", "", "Segment to crawl from (default: the first segment)")
}
