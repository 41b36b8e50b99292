package main

import (
	"context"

	"github.com/aretw0/lookahead/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Starts the lookahead engine in server mode, exposing a JSON API, an SSE stream of
invalidations and Prometheus metrics over HTTP. Logs are written as JSON.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnvironmentWith(cmd, func(o *cli.Options) { o.JSONLogs = true })
		if err != nil {
			return err
		}
		defer env.Close()

		var opts cli.ServeOptions
		opts.Port, _ = cmd.Flags().GetInt("port")
		opts.AllowedOrigins, _ = cmd.Flags().GetStringSlice("allowed-origin")
		opts.Watch, _ = cmd.Flags().GetBool("watch")

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		err = cli.RunServe(sigCtx, env, opts)
		if sig := sigCtx.Signal(); sig != nil {
			env.Logger.Info("stopped by signal", "signal", sig.String())
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 0, "Port to listen on (default: server.port)")
	serveCmd.Flags().StringSlice("allowed-origin", nil, "CORS origin allowed to call the API (repeatable)")
	serveCmd.Flags().BoolP("watch", "w", false, "Reload the network when its file changes")
}
