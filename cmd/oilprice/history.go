package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/seenimoa/oilprice/internal/analysis"
	"github.com/seenimoa/oilprice/internal/export"
	"github.com/seenimoa/oilprice/internal/historical"
	"github.com/seenimoa/oilprice/internal/provider"
	"github.com/seenimoa/oilprice/pkg/models"
	"github.com/seenimoa/oilprice/pkg/utils"
)

// --- History Command ---

var historyCmd = &cobra.Command{
	Use:   "history [commodity...]",
	Short: "Fetch historical prices for one or more commodities",
	Long: `Fetch historical prices. Without --all a single page is fetched; with
--all every page is walked. Several commodities with --all are fetched
concurrently. Results are printed, or written to --out in --format.`,
	Example: `  oilprice history WTI_USD --start 2024-01-01 --end 2024-12-31 --all
  oilprice history brent wti --all --out data --format parquet`,
	Args: cobra.MinimumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().String("start", "", "start date (YYYY-MM-DD or RFC3339)")
	historyCmd.Flags().String("end", "", "end date (YYYY-MM-DD or RFC3339)")
	historyCmd.Flags().String("interval", historical.DefaultInterval, "minute, hourly, daily, weekly or monthly")
	historyCmd.Flags().String("type", historical.DefaultPriceType, "price type filter")
	historyCmd.Flags().Int("page", 1, "page to fetch (ignored with --all)")
	historyCmd.Flags().Int("per-page", historical.DefaultPerPage, "page size, at most 1000 (ignored with --all)")
	historyCmd.Flags().Bool("all", false, "fetch every page")
	historyCmd.Flags().Duration("timeout", 0, "per-request timeout override (default: by date range)")
	historyCmd.Flags().String("out", "", "write results to this directory instead of printing")
	historyCmd.Flags().Bool("stats", false, "print a summary and moving averages per commodity")
	historyCmd.Flags().String("format", "", "export format: csv, json, parquet or sqlite (default from config)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	start, _ := cmd.Flags().GetString("start")
	end, _ := cmd.Flags().GetString("end")
	interval, _ := cmd.Flags().GetString("interval")
	priceType, _ := cmd.Flags().GetString("type")
	page, _ := cmd.Flags().GetInt("page")
	perPage, _ := cmd.Flags().GetInt("per-page")
	all, _ := cmd.Flags().GetBool("all")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	outDir, _ := cmd.Flags().GetString("out")
	stats, _ := cmd.Flags().GetBool("stats")

	// Fail on bad dates before any request.
	r, err := historical.ParseRange(start, end)
	if err != nil {
		return err
	}
	if _, err := historicalService(); err != nil {
		return err
	}

	var saver export.Saver
	if outDir != "" {
		format, _ := cmd.Flags().GetString("format")
		if format == "" {
			format = cfg.Export.Format
		}
		if saver = export.NewSaver(format); saver == nil {
			return fmt.Errorf("unsupported format %q (use: csv, json, parquet, sqlite)", format)
		}
	}

	commodities := make([]string, len(args))
	for i, a := range args {
		commodities[i] = utils.NormalizeCommodity(a)
	}

	var results map[string][]models.HistoricalPrice
	if all && len(commodities) > 1 {
		results, err = fetchMany(ctx, commodities, r, interval, priceType, timeout)
	} else {
		results, err = fetchEach(ctx, commodities, provider.QueryParams{
			provider.ParamStartDate: start,
			provider.ParamEndDate:   end,
			provider.ParamInterval:  interval,
			provider.ParamType:      priceType,
			provider.ParamPage:      strconv.Itoa(page),
			provider.ParamPerPage:   strconv.Itoa(perPage),
			provider.ParamTimeout:   timeout.String(),
		}, all)
	}
	if err != nil {
		return err
	}

	for _, c := range commodities {
		prices := results[c]
		if saver == nil {
			if stats {
				printSummary(c, prices)
			} else {
				printPrices(c, prices)
			}
			continue
		}
		if stats {
			printSummary(c, prices)
		}
		path := export.FilePath(outDir, c, saver)
		if err := export.Write(saver, prices, path); err != nil {
			return err
		}
		logger.Info().Str("commodity", c).Int("records", len(prices)).Str("path", path).Msg("Exported prices")
	}
	return nil
}

// fetchEach fetches commodities one by one through the provider registry.
func fetchEach(ctx context.Context, commodities []string, base provider.QueryParams, all bool) (map[string][]models.HistoricalPrice, error) {
	model := provider.ModelCommodityHistorical
	if all {
		model = provider.ModelCommodityHistoricalAll
	}

	out := make(map[string][]models.HistoricalPrice, len(commodities))
	for _, c := range commodities {
		params := make(provider.QueryParams, len(base)+1)
		for k, v := range base {
			params[k] = v
		}
		params[provider.ParamCommodity] = c

		res, err := registry.Fetch(ctx, model, params)
		if err != nil {
			return nil, err
		}
		switch data := res.Data.(type) {
		case []models.HistoricalPrice:
			out[c] = data
		case *models.HistoricalResult:
			out[c] = data.Data
			logger.Debug().
				Str("commodity", c).
				Int("page", data.Meta.Page).
				Int("total_pages", data.Meta.TotalPages).
				Bool("has_next", data.Meta.HasNext).
				Msg("Fetched page")
		default:
			return nil, fmt.Errorf("unexpected data type %T", res.Data)
		}
	}
	return out, nil
}

// fetchMany walks every page of several commodities concurrently.
func fetchMany(ctx context.Context, commodities []string, r historical.DateRange, interval, priceType string, timeout time.Duration) (map[string][]models.HistoricalPrice, error) {
	svc, err := historicalService()
	if err != nil {
		return nil, err
	}
	queries := make([]historical.Query, len(commodities))
	for i, c := range commodities {
		queries[i] = historical.Query{
			Commodity: c,
			Range:     r,
			Interval:  interval,
			Type:      priceType,
			Timeout:   timeout,
		}
	}
	return svc.GetAllMany(ctx, queries, cfg.Historical.Concurrency)
}

func printPrices(commodity string, prices []models.HistoricalPrice) {
	fmt.Printf("%s: %d records\n", commodity, len(prices))
	for _, p := range prices {
		fmt.Printf("  %s  %12.4f  %-8s %s\n", p.Date.Format(time.RFC3339), p.Value, p.Unit, p.Type)
	}
}

func printSummary(commodity string, prices []models.HistoricalPrice) {
	s := analysis.Summarize(prices)
	fmt.Printf("%s: %d records (summary)\n", commodity, s.Count)
	if s.Count == 0 {
		return
	}
	fmt.Printf("  range:   %s .. %s\n", utils.FormatDate(s.From), utils.FormatDate(s.To))
	fmt.Printf("  first:   %12.4f   last: %12.4f   change: %+.4f (%+.2f%%)\n", s.First, s.Last, s.Change, s.ChangePct)
	fmt.Printf("  min:     %12.4f   max:  %12.4f\n", s.Min, s.Max)
	fmt.Printf("  mean:    %12.4f   sd:   %12.4f\n", s.Mean, s.StdDev)

	smas := analysis.MultiSMA(analysis.Values(prices), analysis.StandardPeriods)
	for _, p := range analysis.StandardPeriods {
		if v, ok := smas[p]; ok {
			fmt.Printf("  sma(%d):%s%12.4f\n", p, strings.Repeat(" ", 4-len(strconv.Itoa(p))), v)
		}
	}
}

// --- Pages Command ---

var pagesCmd = &cobra.Command{
	Use:   "pages [commodity]",
	Short: "Stream pages of historical prices lazily",
	Long:  "Walk the pages of a historical query one request at a time, printing a summary per page.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		start, _ := cmd.Flags().GetString("start")
		end, _ := cmd.Flags().GetString("end")
		perPage, _ := cmd.Flags().GetInt("per-page")
		limit, _ := cmd.Flags().GetInt("limit")

		r, err := historical.ParseRange(start, end)
		if err != nil {
			return err
		}
		svc, err := historicalService()
		if err != nil {
			return err
		}

		q := historical.Query{Commodity: utils.NormalizeCommodity(args[0]), Range: r, PerPage: perPage}
		n, total := 0, 0
		for page, err := range svc.IterPages(ctx, q).All() {
			if err != nil {
				return err
			}
			n++
			total += len(page)
			first, last := page[0].Date, page[len(page)-1].Date
			fmt.Printf("page %d: %d records (%s … %s)\n", n, len(page), utils.FormatDate(first), utils.FormatDate(last))
			if limit > 0 && n >= limit {
				break
			}
		}
		fmt.Printf("%d pages, %d records\n", n, total)
		return nil
	},
}

func init() {
	pagesCmd.Flags().String("start", "", "start date (YYYY-MM-DD or RFC3339)")
	pagesCmd.Flags().String("end", "", "end date (YYYY-MM-DD or RFC3339)")
	pagesCmd.Flags().Int("per-page", historical.DefaultPerPage, "page size, at most 1000")
	pagesCmd.Flags().Int("limit", 0, "stop after this many pages (0: no limit)")
}
