package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"sirius_reviews/internal/domain"
)

// rows per INSERT statement; 13 placeholders each stays far below 65535
const batchSize = 500

var tableName = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

func valAny(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	return domain.Render(v)
}

type Repo struct {
	db    *sql.DB
	table string
}

func New(db *sql.DB, table string) (*Repo, error) {
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &Repo{db: db, table: table}, nil
}

// ReplaceReviews swaps the table content for records in one transaction.
func (r *Repo) ReplaceReviews(ctx context.Context, records []domain.FlatRecord) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("db ping failed: %w", err)
	}
	log.Info().Str("table", r.table).Msg("db ping ok")

	// DDL commits implicitly in MySQL, keep it outside the transaction
	if _, err := r.db.ExecContext(ctx, fmt.Sprintf(createReviewsSQL, r.table)); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			log.Warn().Err(err).Str("table", r.table).Msg("rollback failed")
		}
	}()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(deleteReviewsSQL, r.table)); err != nil {
		return fmt.Errorf("clear table: %w", err)
	}
	for start := 0; start < len(records); start += batchSize {
		end := min(start+batchSize, len(records))
		if err := r.insertBatch(ctx, tx, records[start:end]); err != nil {
			return fmt.Errorf("insert rows %d-%d: %w", start, end-1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	log.Info().Str("table", r.table).Int("rows", len(records)).Msg("mysql sink loaded")
	return nil
}

func (r *Repo) insertBatch(ctx context.Context, tx *sql.Tx, rs []domain.FlatRecord) error {
	placeholder := "(" + strings.TrimSuffix(strings.Repeat("?,", len(domain.Columns)), ",") + ")"
	values := make([]string, 0, len(rs))
	args := make([]any, 0, len(rs)*len(domain.Columns))
	for _, rec := range rs {
		values = append(values, placeholder)
		for _, v := range rec.Values() {
			a, err := valAny(v)
			if err != nil {
				return err
			}
			args = append(args, a)
		}
	}
	sqlStr := insertReviewsPrefix(r.table, domain.Columns) + strings.Join(values, ",")
	_, err := tx.ExecContext(ctx, sqlStr, args...)
	return err
}

// CountReviews returns the number of rows currently in the sink table.
func (r *Repo) CountReviews(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM `%s`", r.table)).Scan(&n)
	return n, err
}
