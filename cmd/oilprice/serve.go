package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/seenimoa/oilprice/api"
)

// --- Serve Command ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve historical prices over an HTTP API",
	Long: `Start the REST API. Routes:
  GET /health
  GET /api/v1/providers
  GET /api/v1/config/keys
  GET /api/v1/history/{commodity}?start_date=&end_date=&per_page=&all=true
  GET /api/v1/history/{commodity}/summary`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = cfg.Server.Addr
		}
		if _, err := historicalService(); err != nil {
			return err
		}
		return api.NewServer(cfg, registry, logger).ListenAndServe(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default from config)")
}
