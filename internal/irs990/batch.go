package irs990

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/beevik/etree"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// MalformedPolicy decides what happens to a batch when one document cannot
// be parsed.
type MalformedPolicy string

const (
	// FailBatch aborts the partition on the first malformed document.
	FailBatch MalformedPolicy = "fail"
	// SkipDocument logs the malformed document and continues.
	SkipDocument MalformedPolicy = "skip"
)

// ParseMalformedPolicy validates a policy name.
func ParseMalformedPolicy(s string) (MalformedPolicy, error) {
	switch MalformedPolicy(s) {
	case FailBatch, SkipDocument:
		return MalformedPolicy(s), nil
	case "":
		return FailBatch, nil
	default:
		return "", eris.Errorf("irs990: unknown malformed policy %q (valid: fail, skip)", s)
	}
}

// MalformedError reports a member that is not well-formed XML.
type MalformedError struct {
	Member string
	Err    error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("irs990: malformed document %s: %v", e.Member, e.Err)
}

func (e *MalformedError) Unwrap() error { return e.Err }

// Source is an archive of named XML documents, listed in processing order.
type Source interface {
	Members() []string
	Open(i int) (io.ReadCloser, error)
}

// ParseFunc parses one document into its root element.
type ParseFunc func(io.Reader) (*etree.Element, error)

// ExtractOptions configures a BatchExtractor.
type ExtractOptions struct {
	// Workers > 1 extracts documents concurrently; output order is unchanged.
	Workers       int
	OnMalformed   MalformedPolicy
	ProgressEvery int
}

// BatchExtractor composes every document of one partition.
type BatchExtractor struct {
	parse ParseFunc
	opts  ExtractOptions
}

// NewBatchExtractor creates an extractor that parses documents with parse.
func NewBatchExtractor(parse ParseFunc, opts ExtractOptions) *BatchExtractor {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.OnMalformed == "" {
		opts.OnMalformed = FailBatch
	}
	if opts.ProgressEvery <= 0 {
		opts.ProgressEvery = 1000
	}
	return &BatchExtractor{parse: parse, opts: opts}
}

// Extract composes a filing for every member of src, in member order.
// Cancellation is checked between documents, never within one.
func (x *BatchExtractor) Extract(ctx context.Context, p Partition, src Source) (*Batch, error) {
	log := zap.L().With(zap.String("component", "irs990.batch"), zap.String("partition", p.String()))

	members := src.Members()
	results := make([]*Filing, len(members))
	var done atomic.Int64

	extractOne := func(i int) error {
		f, err := x.extractMember(src, i, members[i])
		if err != nil {
			var me *MalformedError
			if errors.As(err, &me) && x.opts.OnMalformed == SkipDocument {
				log.Warn("skipping malformed document", zap.String("member", members[i]), zap.Error(me.Err))
				return nil
			}
			return err
		}
		results[i] = &f
		if n := done.Add(1); n%int64(x.opts.ProgressEvery) == 0 {
			log.Info("extract progress", zap.Int64("done", n), zap.Int("total", len(members)), zap.String("member", members[i]))
		}
		return nil
	}

	if x.opts.Workers == 1 {
		for i := range members {
			if err := ctx.Err(); err != nil {
				return nil, eris.Wrap(err, "irs990: extract cancelled")
			}
			if err := extractOne(i); err != nil {
				return nil, err
			}
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(x.opts.Workers)
		for i := range members {
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return eris.Wrap(err, "irs990: extract cancelled")
				}
				return extractOne(i)
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "irs990: extract cancelled")
		}
	}

	batch := &Batch{Partition: p, Filings: make([]Filing, 0, len(members))}
	for i, f := range results {
		if f == nil {
			batch.Skipped = append(batch.Skipped, members[i])
			continue
		}
		batch.Filings = append(batch.Filings, *f)
	}

	log.Info("partition extracted",
		zap.Int("filings", len(batch.Filings)),
		zap.Int("skipped", len(batch.Skipped)),
	)
	return batch, nil
}

func (x *BatchExtractor) extractMember(src Source, i int, name string) (Filing, error) {
	rc, err := src.Open(i)
	if err != nil {
		return Filing{}, eris.Wrapf(err, "irs990: open member %s", name)
	}
	defer rc.Close() //nolint:errcheck

	root, err := x.parse(rc)
	if err != nil {
		return Filing{}, &MalformedError{Member: name, Err: err}
	}
	return Compose(name, root), nil
}
