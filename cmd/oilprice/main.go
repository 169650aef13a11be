// oilprice: command-line client for the OilPriceAPI commodity price service.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/ternarybob/arbor"

	"github.com/seenimoa/oilprice/internal/client"
	"github.com/seenimoa/oilprice/internal/config"
	"github.com/seenimoa/oilprice/internal/historical"
	"github.com/seenimoa/oilprice/internal/logging"
	"github.com/seenimoa/oilprice/internal/provider"
	"github.com/seenimoa/oilprice/internal/providers"
	"github.com/seenimoa/oilprice/internal/providers/oilprice"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Shared state built by PersistentPreRunE.
var (
	cfg      *config.Config
	logger   arbor.ILogger
	registry *provider.Registry
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "oilprice",
	Short: "oilprice - historical commodity prices from OilPriceAPI",
	Long: `oilprice retrieves historical oil, gas and commodity prices from the
OilPriceAPI REST service. It picks the narrowest server-side window for the
requested date range, walks paginated results and can export them to CSV,
JSON, Parquet or SQLite.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if level, _ := cmd.Flags().GetString("log-level"); level != "" {
			cfg.Logging.Level = level
		}
		logger = logging.New(cfg.Logging)

		registry = provider.NewRegistry()
		if err := providers.RegisterAllTo(registry, cfg, logger); err != nil {
			return fmt.Errorf("failed to register providers: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(pagesCmd)
	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(serveCmd)
}

// historicalService returns the engine of the registered OilPriceAPI provider.
func historicalService() (*historical.Service, error) {
	p, err := registry.Get("oilprice")
	if err != nil {
		if cfg.API.Key == "" {
			return nil, client.ErrMissingAPIKey
		}
		return nil, err
	}
	op, ok := p.(*oilprice.Provider)
	if !ok || op.Service() == nil {
		return nil, oilprice.ErrNotInitialized
	}
	return op.Service(), nil
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("oilprice %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
		fmt.Printf("  client:  oilprice-go/%s\n", client.Version)
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and provider status",
	RunE: func(cmd *cobra.Command, args []string) error {
		ping, _ := cmd.Flags().GetBool("ping")

		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  oilprice - Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:       %s (%s)\n", version, commit)
		fmt.Println()

		fmt.Println("  Configuration:")
		fmt.Printf("    Base URL:      %s\n", cfg.API.BaseURL)
		fmt.Printf("    Timeout:       %s\n", cfg.API.Timeout())
		fmt.Printf("    Rate limit:    %d req/s\n", cfg.API.RateLimit)
		fmt.Printf("    Max pages:     %d\n", cfg.Historical.MaxPages)
		fmt.Printf("    Export:        %s → %s\n", cfg.Export.Format, cfg.Export.Dir)
		fmt.Printf("    Schedule:      %q, %d days, %s\n", cfg.Schedule.Cron, cfg.Schedule.Days, strings.Join(cfg.Schedule.Commodities, ","))
		fmt.Printf("    Server:        %s\n", cfg.Server.Addr)
		fmt.Println()

		fmt.Println("  API Keys:")
		for _, k := range config.CheckAPIKeys(cfg) {
			status := "not set"
			if k.IsSet {
				status = fmt.Sprintf("set (%s: %s)", k.Source, k.Masked)
			}
			fmt.Printf("    %-25s %s\n", k.Name+":", status)
		}
		fmt.Println()

		fmt.Println("  Providers:")
		infos := registry.List()
		if len(infos) == 0 {
			fmt.Println("    none registered")
		}
		for _, info := range infos {
			fmt.Printf("    %-12s %d models\n", info.Name, len(info.Models))
			if !ping {
				continue
			}
			p, err := registry.Get(info.Name)
			if err != nil {
				return err
			}
			if err := p.Ping(cmd.Context()); err != nil {
				fmt.Printf("      ping: failed: %v\n", err)
			} else {
				fmt.Println("      ping: ok")
			}
		}

		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}

func init() {
	statusCmd.Flags().Bool("ping", false, "check connectivity of each provider")
}
