package main

import (
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/seenimoa/oilprice/internal/export"
	"github.com/seenimoa/oilprice/internal/scheduler"
	"github.com/seenimoa/oilprice/pkg/utils"
)

// --- Collect Command ---

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect recent prices on a cron schedule",
	Long: `Fetch the trailing schedule.days of prices for every commodity in
schedule.commodities on each tick of schedule.cron (six fields, seconds
first) and export them to export.dir. With --once a single collection runs
and the command exits.`,
	Example: `  oilprice collect --once --format sqlite
  oilprice collect --cron "0 30 18 * * 1-5"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		once, _ := cmd.Flags().GetBool("once")
		sched := cfg.Schedule
		if spec, _ := cmd.Flags().GetString("cron"); spec != "" {
			sched.Cron = spec
		}
		if days, _ := cmd.Flags().GetInt("days"); days > 0 {
			sched.Days = days
		}
		if list, _ := cmd.Flags().GetStringSlice("commodities"); len(list) > 0 {
			sched.Commodities = list
		}
		codes := make([]string, len(sched.Commodities))
		for i, c := range sched.Commodities {
			codes[i] = utils.NormalizeCommodity(c)
		}
		sched.Commodities = codes

		format, _ := cmd.Flags().GetString("format")
		if format == "" {
			format = cfg.Export.Format
		}
		saver := export.NewSaver(format)
		if saver == nil {
			return fmt.Errorf("unsupported format %q (use: csv, json, parquet, sqlite)", format)
		}
		dir, _ := cmd.Flags().GetString("out")
		if dir == "" {
			dir = cfg.Export.Dir
		}

		svc, err := historicalService()
		if err != nil {
			return err
		}
		s, err := scheduler.New(ctx, svc, saver, dir, sched, cfg.Historical.Concurrency, logger)
		if err != nil {
			return err
		}

		if once {
			paths, err := s.RunNow(ctx)
			if err != nil {
				return err
			}
			names := make([]string, 0, len(paths))
			for c := range paths {
				names = append(names, c)
			}
			sort.Strings(names)
			for _, c := range names {
				fmt.Printf("%-20s %s\n", c, paths[c])
			}
			return nil
		}

		if err := s.Register(); err != nil {
			return err
		}
		s.Start()
		logger.Info().Str("next", s.Next().Format("2006-01-02 15:04:05")).Msg("Waiting for next collection")
		<-ctx.Done()
		s.Stop()
		return nil
	},
}

func init() {
	collectCmd.Flags().Bool("once", false, "run one collection and exit")
	collectCmd.Flags().String("cron", "", "cron spec override (default from config)")
	collectCmd.Flags().Int("days", 0, "trailing window in days (default from config)")
	collectCmd.Flags().StringSlice("commodities", nil, "commodities to collect (default from config)")
	collectCmd.Flags().String("out", "", "output directory (default from config)")
	collectCmd.Flags().String("format", "", "export format: csv, json, parquet or sqlite (default from config)")
}
