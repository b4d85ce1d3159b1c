package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/polyarb/arbot/internal/domain"
)

// OpportunityStore implements domain.OpportunityStore using PostgreSQL.
type OpportunityStore struct {
	pool *pgxpool.Pool
}

// NewOpportunityStore creates a new OpportunityStore backed by the given
// connection pool.
func NewOpportunityStore(pool *pgxpool.Pool) *OpportunityStore {
	return &OpportunityStore{pool: pool}
}

// Insert appends one opportunity record to the history.
func (s *OpportunityStore) Insert(ctx context.Context, rec domain.OpportunityRecord) error {
	const query = `
		INSERT INTO opportunities (
			id, kind, market_ids, profit_pct, expected_profit_usd,
			score, profit_score, capital_efficiency, confidence,
			risk, execution_difficulty, detail, detected_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9,
			$10, $11, $12, $13
		)`

	_, err := s.pool.Exec(ctx, query,
		rec.ID, string(rec.Kind), rec.MarketIDs,
		rec.ProfitPct, rec.ExpectedProfitUSD,
		rec.Score, rec.ProfitScore, rec.CapitalEfficiencyScore, rec.ConfidenceScore,
		rec.RiskScore, rec.ExecutionDifficulty,
		rec.Detail, rec.DetectedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert opportunity %s: %w", rec.ID, err)
	}
	return nil
}

// ListRecent returns the most recently detected records, newest first.
func (s *OpportunityStore) ListRecent(ctx context.Context, limit int) ([]domain.OpportunityRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	const query = `
		SELECT id, kind, market_ids, profit_pct, expected_profit_usd,
		       score, profit_score, capital_efficiency, confidence,
		       risk, execution_difficulty, detail, detected_at
		FROM opportunities
		ORDER BY detected_at DESC
		LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list opportunities: %w", err)
	}
	defer rows.Close()

	var recs []domain.OpportunityRecord
	for rows.Next() {
		var rec domain.OpportunityRecord
		var kind string

		if err := rows.Scan(
			&rec.ID, &kind, &rec.MarketIDs,
			&rec.ProfitPct, &rec.ExpectedProfitUSD,
			&rec.Score, &rec.ProfitScore, &rec.CapitalEfficiencyScore, &rec.ConfidenceScore,
			&rec.RiskScore, &rec.ExecutionDifficulty,
			&rec.Detail, &rec.DetectedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan opportunity: %w", err)
		}
		rec.Kind = domain.Kind(kind)
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list opportunities rows: %w", err)
	}
	return recs, nil
}

// CountByKind returns how many records of each kind were detected since the
// given time.
func (s *OpportunityStore) CountByKind(ctx context.Context, since time.Time) (map[domain.Kind]int64, error) {
	const query = `
		SELECT kind, COUNT(*)
		FROM opportunities
		WHERE detected_at >= $1
		GROUP BY kind`

	rows, err := s.pool.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("postgres: count opportunities: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.Kind]int64)
	for rows.Next() {
		var kind string
		var n int64
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("postgres: scan opportunity count: %w", err)
		}
		counts[domain.Kind(kind)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: count opportunities rows: %w", err)
	}
	return counts, nil
}
