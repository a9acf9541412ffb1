package main

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/irs990-lake/internal/fetcher"
	"github.com/sells-group/irs990-lake/internal/lake"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download IRS 990 bulk archives",
	Long: `Download download990xml_{year}_{part}.zip for every year from fetch.start_year
through the current year into {data_dir}/raw.

Parts are requested in order until the IRS serves its HTML placeholder.
Archives already on disk are kept unless --refresh is given, in which case
they are re-requested with their stored ETag.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log := zap.L().With(zap.String("command", "fetch"))

		years, err := fetchYears(cmd, time.Now().Year())
		if err != nil {
			return err
		}
		refresh, _ := cmd.Flags().GetBool("refresh")

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		var catalog lake.Catalog
		if st != nil {
			defer st.Close() //nolint:errcheck
			if err := st.Migrate(ctx); err != nil {
				return eris.Wrap(err, "fetch: migrate")
			}
			catalog = st
		}

		f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
			UserAgent:  cfg.Fetch.UserAgent,
			Timeout:    time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
			MaxRetries: cfg.Fetch.MaxRetries,
			RatePerSec: cfg.Fetch.RatePerSec,
		})
		d := lake.NewDownloader(f, cfg.Fetch.BaseURL, cfg.Lake.RawDir(), cfg.Fetch.MaxParts, catalog)

		log.Info("starting fetch", zap.Ints("years", years), zap.Bool("refresh", refresh))

		res, err := d.Run(ctx, lake.DownloadOpts{Years: years, Refresh: refresh})
		if err != nil {
			return eris.Wrap(err, "fetch")
		}

		fmt.Printf("Fetch complete: %d downloaded, %d unchanged, %d already present\n",
			len(res.Downloaded), len(res.Unchanged), len(res.Kept))
		return nil
	},
}

func init() {
	fetchCmd.Flags().String("years", "", "years to fetch, e.g. 2019 or 2015,2018-2020 (default: start_year through current year)")
	fetchCmd.Flags().Bool("refresh", false, "re-request archives already on disk")
	rootCmd.AddCommand(fetchCmd)
}

// fetchYears resolves --years, defaulting to fetch.start_year..currentYear.
func fetchYears(cmd *cobra.Command, currentYear int) ([]int, error) {
	yearsStr, _ := cmd.Flags().GetString("years")
	years, err := lake.ParseYears(yearsStr)
	if err != nil {
		return nil, err
	}
	if years == nil {
		years = lake.YearRange(cfg.Fetch.StartYear, currentYear)
	}
	if len(years) == 0 {
		return nil, eris.Errorf("fetch: no years selected (start_year %d)", cfg.Fetch.StartYear)
	}
	return years, nil
}
