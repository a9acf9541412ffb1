package lake

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/irs990-lake/internal/fetcher"
	"github.com/sells-group/irs990-lake/internal/irs990"
	"github.com/sells-group/irs990-lake/internal/irs990/export"
	"github.com/sells-group/irs990-lake/internal/store"
)

// RawArchive is one downloaded archive awaiting extraction.
type RawArchive struct {
	irs990.Partition
	Path string
}

// ListArchives returns the archives in rawDir in lexical file-name order,
// restricted to years when non-empty. Files that do not follow the IRS
// naming scheme are ignored.
func ListArchives(rawDir string, years []int) ([]RawArchive, error) {
	entries, err := os.ReadDir(rawDir)
	if err != nil {
		return nil, eris.Wrapf(err, "lake: read raw dir %s", rawDir)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	want := yearSet(years)
	var out []RawArchive
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		p, err := irs990.ParsePartition(e.Name())
		if err != nil {
			continue
		}
		if want != nil && !want[p.Year] {
			continue
		}
		out = append(out, RawArchive{Partition: p, Path: filepath.Join(rawDir, e.Name())})
	}
	return out, nil
}

// Engine runs extract, export, and load for each raw archive.
type Engine struct {
	rawDir    string
	extractor *irs990.BatchExtractor
	writer    *export.Writer
	store     store.Store
}

// NewEngine creates an engine. st may be nil, in which case no run history
// is kept and nothing is loaded.
func NewEngine(rawDir string, extractor *irs990.BatchExtractor, writer *export.Writer, st store.Store) *Engine {
	return &Engine{rawDir: rawDir, extractor: extractor, writer: writer, store: st}
}

// RunOpts configures an engine run.
type RunOpts struct {
	Years []int
	// Load writes each batch into the store in addition to exporting it.
	Load bool
}

// RunSummary reports the partitions processed by a run.
type RunSummary struct {
	Completed []irs990.Partition
	Failed    []irs990.Partition
	Skipped   []irs990.Partition
}

// Run processes every selected archive in order. A failed partition is
// recorded and the run moves on; only cancellation stops it early.
func (e *Engine) Run(ctx context.Context, opts RunOpts) (*RunSummary, error) {
	log := zap.L().With(zap.String("component", "lake.engine"))

	if opts.Load && e.store == nil {
		return nil, eris.New("lake: load requested but no store configured")
	}

	archives, err := ListArchives(e.rawDir, opts.Years)
	if err != nil {
		return nil, err
	}
	if len(archives) == 0 {
		log.Info("no archives selected", zap.String("raw_dir", e.rawDir))
		return &RunSummary{}, nil
	}
	log.Info("selected archives", zap.Int("count", len(archives)))

	sum := &RunSummary{}
	for _, a := range archives {
		if err := ctx.Err(); err != nil {
			return sum, eris.Wrap(err, "lake: run cancelled")
		}
		pLog := log.With(zap.String("partition", a.Partition.String()))

		placeholder, err := fetcher.IsPlaceholder(a.Path)
		if err != nil {
			return sum, err
		}
		if placeholder {
			pLog.Warn("skipping placeholder archive", zap.String("path", a.Path))
			sum.Skipped = append(sum.Skipped, a.Partition)
			continue
		}

		var runID string
		if e.store != nil {
			if runID, err = e.store.StartRun(ctx, a.Partition); err != nil {
				return sum, eris.Wrapf(err, "lake: start run for %s", a.Partition)
			}
		}

		start := time.Now()
		result, err := e.processArchive(ctx, a, opts.Load)
		elapsed := time.Since(start)

		if err != nil {
			pLog.Error("partition failed", zap.Error(err), zap.Duration("elapsed", elapsed))
			if e.store != nil {
				// Record the failure even when ctx itself was cancelled.
				if logErr := e.store.FailRun(context.WithoutCancel(ctx), runID, err.Error()); logErr != nil {
					pLog.Error("failed to record run failure", zap.Error(logErr))
				}
			}
			sum.Failed = append(sum.Failed, a.Partition)
			if ctx.Err() != nil {
				return sum, eris.Wrap(ctx.Err(), "lake: run cancelled")
			}
			continue
		}

		if e.store != nil {
			if err := e.store.CompleteRun(ctx, runID, result); err != nil {
				pLog.Error("failed to record run completion", zap.Error(err))
			}
		}

		pLog.Info("partition complete",
			zap.Int64("returns", result.Returns),
			zap.Int64("officers", result.Officers),
			zap.Int64("grants", result.Grants),
			zap.Int("skipped_documents", len(result.Skipped)),
			zap.Duration("elapsed", elapsed),
		)
		sum.Completed = append(sum.Completed, a.Partition)
	}

	log.Info("engine run complete",
		zap.Int("completed", len(sum.Completed)),
		zap.Int("failed", len(sum.Failed)),
		zap.Int("skipped", len(sum.Skipped)),
	)
	return sum, nil
}

func (e *Engine) processArchive(ctx context.Context, a RawArchive, load bool) (store.RunResult, error) {
	arc, err := fetcher.OpenArchive(a.Path)
	if err != nil {
		return store.RunResult{}, err
	}
	defer arc.Close() //nolint:errcheck

	batch, err := e.extractor.Extract(ctx, a.Partition, arc)
	if err != nil {
		return store.RunResult{}, err
	}
	tables := batch.Tables()

	if e.writer != nil {
		if _, err := e.writer.Write(batch); err != nil {
			return store.RunResult{}, err
		}
	}

	if load {
		if err := e.store.LoadBatch(ctx, a.Partition, tables); err != nil {
			return store.RunResult{}, err
		}
	}

	return store.ResultOf(tables, batch.Skipped), nil
}
