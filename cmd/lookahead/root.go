package main

import (
	"fmt"
	"os"

	"github.com/aretw0/lookahead/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "lookahead",
	Short: "Lookahead tells a train driver what lies ahead on the track",
	Long: `Lookahead indexes the signs and grades of a rail network and walks the track from a
position, following the live junction selection, to list upcoming speed limits, grade changes,
junctions and named segments.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("network", "n", "", "Network file (YAML or JSON)")
	rootCmd.PersistentFlags().StringP("config", "c", "", "Config file (YAML)")
	rootCmd.PersistentFlags().String("env-file", ".env", "Environment file loaded before the config")
	rootCmd.PersistentFlags().Bool("debug", false, "Log debug details to stderr")
	rootCmd.PersistentFlags().StringP("output", "o", "pretty", "Output format: pretty, markdown or json")
}

// loadEnvironment builds the environment from the persistent flags.
func loadEnvironment(cmd *cobra.Command) (*cli.Environment, error) {
	return loadEnvironmentWith(cmd, func(*cli.Options) {})
}

func loadEnvironmentWith(cmd *cobra.Command, adjust func(*cli.Options)) (*cli.Environment, error) {
	flags := cmd.Flags()
	opts := cli.Options{}
	opts.NetworkPath, _ = flags.GetString("network")
	opts.ConfigPath, _ = flags.GetString("config")
	opts.EnvFile, _ = flags.GetString("env-file")
	opts.Debug, _ = flags.GetBool("debug")
	adjust(&opts)
	return cli.NewEnvironment(opts)
}

// newPrinter builds a printer on stdout from the --output flag.
func newPrinter(cmd *cobra.Command) (*cli.Printer, error) {
	raw, _ := cmd.Flags().GetString("output")
	format, err := cli.ParseFormat(raw)
	if err != nil {
		return nil, err
	}
	return cli.NewPrinter(cmd.OutOrStdout(), format), nil
}

// addPositionFlags registers the flags that place the traveller.
func addPositionFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("segment", "s", "", "Segment the traveller is on")
	cmd.Flags().Float64("offset", 0, "Distance from the first end of the segment, in meters")
	cmd.Flags().BoolP("backward", "b", false, "Travel towards the first end of the segment")
	_ = cmd.MarkFlagRequired("segment")
}

func position(cmd *cobra.Command) cli.Position {
	var pos cli.Position
	pos.Segment, _ = cmd.Flags().GetString("segment")
	pos.Offset, _ = cmd.Flags().GetFloat64("offset")
	pos.Backward, _ = cmd.Flags().GetBool("backward")
	if cmd.Flags().Lookup("speed") != nil {
		pos.Speed, _ = cmd.Flags().GetFloat64("speed")
	}
	return pos
}
