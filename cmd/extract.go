package main

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/irs990-lake/internal/fetcher"
	"github.com/sells-group/irs990-lake/internal/irs990"
	"github.com/sells-group/irs990-lake/internal/irs990/export"
	"github.com/sells-group/irs990-lake/internal/lake"
	"github.com/sells-group/irs990-lake/internal/store"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Normalize raw archives into return, officer, and grant tables",
	Long: `Process every archive under {data_dir}/raw in file-name order. Each archive
is extracted into the configured export formats and, with --load, replaces
its partition in the configured store.

A partition that fails is recorded in the sync log and the run continues;
the command exits non-zero if any partition failed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log := zap.L().With(zap.String("command", "extract"))

		opts, err := parseExtractOpts(cmd)
		if err != nil {
			return err
		}

		var st store.Store
		if opts.load {
			st, err = requireStore(ctx)
		} else {
			st, err = initStore(ctx)
		}
		if err != nil {
			return err
		}
		if st != nil {
			defer st.Close() //nolint:errcheck
			if err := st.Migrate(ctx); err != nil {
				return eris.Wrap(err, "extract: migrate")
			}
		}

		dirs := make(map[export.Format]string, len(opts.formats))
		for _, f := range opts.formats {
			dirs[f] = cfg.Lake.FormatDir(f)
		}
		w, err := export.NewWriter(opts.formats, dirs)
		if err != nil {
			return err
		}

		x := irs990.NewBatchExtractor(fetcher.ParseXMLDocument, opts.extract)
		engine := lake.NewEngine(cfg.Lake.RawDir(), x, w, st)

		log.Info("starting extract",
			zap.Ints("years", opts.years),
			zap.Strings("formats", formatNames(opts.formats)),
			zap.Bool("load", opts.load),
			zap.Int("workers", opts.extract.Workers),
			zap.String("on_malformed", string(opts.extract.OnMalformed)),
		)

		sum, err := engine.Run(ctx, lake.RunOpts{Years: opts.years, Load: opts.load})
		if err != nil {
			return eris.Wrap(err, "extract")
		}

		fmt.Printf("Extract complete: %d partitions completed, %d failed, %d skipped\n",
			len(sum.Completed), len(sum.Failed), len(sum.Skipped))
		if len(sum.Failed) > 0 {
			return eris.Errorf("extract: %d partitions failed: %s", len(sum.Failed), partitionList(sum.Failed))
		}
		return nil
	},
}

func init() {
	extractCmd.Flags().String("years", "", "restrict to years, e.g. 2019 or 2015,2018-2020")
	extractCmd.Flags().String("formats", "", "comma-separated export formats: csv, json, xlsx (default: export.formats)")
	extractCmd.Flags().Bool("load", false, "load each batch into the configured store")
	extractCmd.Flags().Int("workers", 0, "documents extracted concurrently (default: extract.workers)")
	extractCmd.Flags().String("on-malformed", "", "fail or skip a batch containing malformed XML (default: extract.on_malformed)")
	rootCmd.AddCommand(extractCmd)
}

type extractOpts struct {
	years   []int
	formats []export.Format
	load    bool
	extract irs990.ExtractOptions
}

// parseExtractOpts merges the command flags over the loaded config.
func parseExtractOpts(cmd *cobra.Command) (extractOpts, error) {
	yearsStr, _ := cmd.Flags().GetString("years")
	formatsStr, _ := cmd.Flags().GetString("formats")
	load, _ := cmd.Flags().GetBool("load")
	workers, _ := cmd.Flags().GetInt("workers")
	onMalformed, _ := cmd.Flags().GetString("on-malformed")

	years, err := lake.ParseYears(yearsStr)
	if err != nil {
		return extractOpts{}, err
	}

	names := cfg.Export.Formats
	if formatsStr != "" {
		names = strings.Split(formatsStr, ",")
	}
	formats, err := export.ParseFormats(names)
	if err != nil {
		return extractOpts{}, err
	}

	if workers <= 0 {
		workers = cfg.Extract.Workers
	}
	if onMalformed == "" {
		onMalformed = cfg.Extract.OnMalformed
	}
	policy, err := irs990.ParseMalformedPolicy(onMalformed)
	if err != nil {
		return extractOpts{}, err
	}

	return extractOpts{
		years:   years,
		formats: formats,
		load:    load,
		extract: irs990.ExtractOptions{
			Workers:       workers,
			OnMalformed:   policy,
			ProgressEvery: cfg.Extract.ProgressEvery,
		},
	}, nil
}

func formatNames(formats []export.Format) []string {
	names := make([]string, len(formats))
	for i, f := range formats {
		names[i] = string(f)
	}
	return names
}

func partitionList(parts []irs990.Partition) string {
	s := make([]string, len(parts))
	for i, p := range parts {
		s[i] = p.String()
	}
	return strings.Join(s, ", ")
}
