package repos

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xzemt/omnialpha/internal/contracts"
)

// MatchRepository implements contracts.MatchRepository on PostgreSQL.
// ⭐ SSOT: 选股结果的持久化只在这里
type MatchRepository struct {
	pool *pgxpool.Pool
}

// NewMatchRepository creates a match repository.
func NewMatchRepository(pool *pgxpool.Pool) *MatchRepository {
	return &MatchRepository{pool: pool}
}

// SaveBatch upserts one scan's match records. Re-running a scan for the
// same date replaces each asset's row.
func (r *MatchRepository) SaveBatch(ctx context.Context, records []*contracts.MatchRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO scan.match_records (stock_code, stock_name, scan_date, strategies, metrics)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (stock_code, scan_date)
		DO UPDATE SET
			stock_name = EXCLUDED.stock_name,
			strategies = EXCLUDED.strategies,
			metrics    = EXCLUDED.metrics
	`

	for _, rec := range records {
		date, err := time.Parse("2006-01-02", rec.Date)
		if err != nil {
			return fmt.Errorf("bad scan date %q for %s: %w", rec.Date, rec.Code, err)
		}
		metrics, err := json.Marshal(rec.Metrics)
		if err != nil {
			return fmt.Errorf("failed to marshal metrics for %s: %w", rec.Code, err)
		}

		if _, err := tx.Exec(ctx, query, rec.Code, rec.Name, date, rec.Strategies, metrics); err != nil {
			return fmt.Errorf("failed to save match for %s: %w", rec.Code, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit matches: %w", err)
	}
	return nil
}

// ListByDate retrieves all match records for one scan date, ordered by
// stock code.
func (r *MatchRepository) ListByDate(ctx context.Context, date time.Time) ([]*contracts.MatchRecord, error) {
	query := `
		SELECT stock_code, stock_name, scan_date, strategies, metrics
		FROM scan.match_records
		WHERE scan_date = $1
		ORDER BY stock_code
	`

	rows, err := r.pool.Query(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	var records []*contracts.MatchRecord
	for rows.Next() {
		rec, err := scanMatchRow(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating matches: %w", err)
	}
	return records, nil
}

func scanMatchRow(row pgx.Row) (*contracts.MatchRecord, error) {
	var (
		rec      contracts.MatchRecord
		scanDate time.Time
		metrics  []byte
	)
	if err := row.Scan(&rec.Code, &rec.Name, &scanDate, &rec.Strategies, &metrics); err != nil {
		return nil, fmt.Errorf("failed to scan match row: %w", err)
	}
	rec.Date = scanDate.Format("2006-01-02")

	if len(metrics) > 0 {
		if err := json.Unmarshal(metrics, &rec.Metrics); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metrics for %s: %w", rec.Code, err)
		}
	}
	return &rec, nil
}
