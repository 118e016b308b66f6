package domain

import (
	"context"
	"time"
)

type SiriusClient interface {
	Login(ctx context.Context, username, password string) (Token, error)
	GetAllReviews(ctx context.Context, token Token, applications []string, dateFrom time.Time) ([]RawReview, error)
}

// StagedTable is a written but not yet visible output table.
type StagedTable interface {
	Path() string
	Commit() (OutputTable, error)
	Abort() error
}

type TableWriter interface {
	Stage(records []FlatRecord) (StagedTable, error)
}

// RecordSink receives the records of a successful run.
type RecordSink interface {
	ReplaceReviews(ctx context.Context, records []FlatRecord) error
}

type OutputTable struct {
	Path         string
	ManifestPath string
	Destination  string
	Rows         int
}
