// Package store persists extracted IRS 990 partitions and their run history
// in Postgres or SQLite.
package store

import (
	"context"
	"time"

	"github.com/sells-group/irs990-lake/internal/irs990"
)

// RunStatus is the state of one partition run.
type RunStatus string

const (
	// RunStatusRunning is set when a run starts.
	RunStatusRunning RunStatus = "running"
	// RunStatusComplete is set once a partition has been loaded.
	RunStatusComplete RunStatus = "complete"
	// RunStatusFailed is set when a run ends in error, including cancellation.
	RunStatusFailed RunStatus = "failed"
)

// Run is one row of the sync log: a single pass over one partition.
type Run struct {
	ID          string     `json:"id"`
	Year        int        `json:"year"`
	Part        int        `json:"part"`
	Status      RunStatus  `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Returns     int64      `json:"returns"`
	Officers    int64      `json:"officers"`
	Grants      int64      `json:"grants"`
	Skipped     []string   `json:"skipped,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// Partition returns the run's partition.
func (r Run) Partition() irs990.Partition {
	return irs990.Partition{Year: r.Year, Part: r.Part}
}

// RunResult holds the outcome of a successful run, passed to CompleteRun.
type RunResult struct {
	Returns  int64    `json:"returns"`
	Officers int64    `json:"officers"`
	Grants   int64    `json:"grants"`
	Skipped  []string `json:"skipped,omitempty"`
}

// ResultOf counts the rows of t.
func ResultOf(t irs990.Tables, skipped []string) RunResult {
	return RunResult{
		Returns:  int64(len(t.Returns)),
		Officers: int64(len(t.Officers)),
		Grants:   int64(len(t.Grants)),
		Skipped:  skipped,
	}
}

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Year   int       `json:"year,omitempty"`
	Status RunStatus `json:"status,omitempty"`
	Limit  int       `json:"limit,omitempty"`
}

// PartitionInfo is one downloaded archive in the partition catalog.
type PartitionInfo struct {
	irs990.Partition
	URL       string    `json:"url"`
	Bytes     int64     `json:"bytes"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Store persists normalized tables and run history.
type Store interface {
	// Tables
	LoadBatch(ctx context.Context, p irs990.Partition, t irs990.Tables) error
	RecordPartition(ctx context.Context, info PartitionInfo) error

	// Runs
	StartRun(ctx context.Context, p irs990.Partition) (string, error)
	CompleteRun(ctx context.Context, runID string, result RunResult) error
	FailRun(ctx context.Context, runID string, errMsg string) error
	ListRuns(ctx context.Context, filter RunFilter) ([]Run, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

const defaultListLimit = 100
