package lake

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/irs990-lake/internal/fetcher"
	"github.com/sells-group/irs990-lake/internal/irs990"
	"github.com/sells-group/irs990-lake/internal/store"
)

const sniffLen = 512

// Catalog records downloaded partitions. store.Store satisfies it.
type Catalog interface {
	RecordPartition(ctx context.Context, info store.PartitionInfo) error
}

// Downloader mirrors the IRS bulk archives of each year into a local raw
// directory, one part at a time, until the server stops serving parts.
type Downloader struct {
	fetcher  fetcher.Fetcher
	baseURL  string
	rawDir   string
	maxParts int
	catalog  Catalog
	now      func() time.Time
}

// NewDownloader creates a Downloader. catalog may be nil.
func NewDownloader(f fetcher.Fetcher, baseURL, rawDir string, maxParts int, catalog Catalog) *Downloader {
	if maxParts <= 0 {
		maxParts = 50
	}
	return &Downloader{
		fetcher:  f,
		baseURL:  strings.TrimRight(baseURL, "/"),
		rawDir:   rawDir,
		maxParts: maxParts,
		catalog:  catalog,
		now:      time.Now,
	}
}

// DownloadOpts selects the years to fetch.
type DownloadOpts struct {
	Years []int
	// Refresh re-requests archives already on disk, sending the stored ETag.
	Refresh bool
}

// DownloadResult lists what happened to each partition seen.
type DownloadResult struct {
	Downloaded []irs990.Partition
	Unchanged  []irs990.Partition
	Kept       []irs990.Partition
}

type partOutcome int

const (
	outcomeDownloaded partOutcome = iota
	outcomeUnchanged
	outcomeKept
	outcomeEndOfYear
)

// URL returns the remote location of partition p.
func (d *Downloader) URL(p irs990.Partition) string {
	return fmt.Sprintf("%s/%d/%s", d.baseURL, p.Year, irs990.ArchiveName(p))
}

// Run fetches parts 1, 2, ... of every selected year. A year ends at the
// first part the server answers with its HTML placeholder or a 404.
func (d *Downloader) Run(ctx context.Context, opts DownloadOpts) (*DownloadResult, error) {
	log := zap.L().With(zap.String("component", "lake.download"))

	if err := os.MkdirAll(d.rawDir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "lake: create raw dir %s", d.rawDir)
	}

	res := &DownloadResult{}
	for _, year := range opts.Years {
		parts := 0
		for part := 1; part <= d.maxParts; part++ {
			if err := ctx.Err(); err != nil {
				return res, eris.Wrap(err, "lake: download cancelled")
			}
			p := irs990.Partition{Year: year, Part: part}

			outcome, err := d.fetchPart(ctx, p, opts.Refresh)
			if err != nil {
				return res, eris.Wrapf(err, "lake: fetch %s", p)
			}
			if outcome == outcomeEndOfYear {
				break
			}
			parts++
			switch outcome {
			case outcomeDownloaded:
				res.Downloaded = append(res.Downloaded, p)
			case outcomeUnchanged:
				res.Unchanged = append(res.Unchanged, p)
			case outcomeKept:
				res.Kept = append(res.Kept, p)
			}
		}
		log.Info("year fetched", zap.Int("year", year), zap.Int("parts", parts))
	}

	log.Info("download complete",
		zap.Int("downloaded", len(res.Downloaded)),
		zap.Int("unchanged", len(res.Unchanged)),
		zap.Int("kept", len(res.Kept)),
	)
	return res, nil
}

func (d *Downloader) fetchPart(ctx context.Context, p irs990.Partition, refresh bool) (partOutcome, error) {
	log := zap.L().With(zap.String("component", "lake.download"), zap.String("partition", p.String()))
	path := filepath.Join(d.rawDir, irs990.ArchiveName(p))
	etagPath := path + ".etag"

	exists := fileExists(path)
	if exists && !refresh {
		log.Debug("archive present, keeping")
		return outcomeKept, nil
	}

	var etag string
	if exists {
		if b, err := os.ReadFile(etagPath); err == nil {
			etag = strings.TrimSpace(string(b))
		}
	}

	url := d.URL(p)
	resp, err := d.fetcher.Fetch(ctx, url, etag)
	if err != nil {
		if fetcher.IsNotFound(err) {
			return outcomeEndOfYear, nil
		}
		return 0, err
	}
	if resp.NotModified {
		log.Debug("archive unchanged")
		return outcomeUnchanged, nil
	}
	defer resp.Body.Close() //nolint:errcheck

	br := bufio.NewReaderSize(resp.Body, 4096)
	head, _ := br.Peek(sniffLen)
	if fetcher.LooksLikePlaceholder(head) {
		log.Debug("placeholder served, end of year")
		return outcomeEndOfYear, nil
	}

	n, err := fetcher.WriteFile(path, br)
	if err != nil {
		return 0, err
	}
	if resp.ETag != "" {
		if err := os.WriteFile(etagPath, []byte(resp.ETag), 0o644); err != nil {
			return 0, eris.Wrap(err, "lake: write etag")
		}
	}
	log.Info("archive downloaded", zap.Int64("bytes", n))

	if d.catalog != nil {
		if err := d.catalog.RecordPartition(ctx, store.PartitionInfo{
			Partition: p,
			URL:       url,
			Bytes:     n,
			FetchedAt: d.now().UTC(),
		}); err != nil {
			return 0, err
		}
	}
	return outcomeDownloaded, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
