package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/polyarb/arbot/internal/domain"
)

// PositionStore implements domain.PositionStore using PostgreSQL.
type PositionStore struct {
	pool *pgxpool.Pool
}

// NewPositionStore creates a new PositionStore backed by the given connection pool.
func NewPositionStore(pool *pgxpool.Pool) *PositionStore {
	return &PositionStore{pool: pool}
}

const positionSelectCols = `id, market_id, outcome, size, entry_price, entry_time,
	current_price, exit_price, exit_time, realized_pnl, gas_costs, status, strategy`

func scanPositionRow(row pgx.Row) (domain.Position, error) {
	var p domain.Position
	var outcome, status, strategy string

	err := row.Scan(
		&p.ID, &p.MarketID, &outcome,
		&p.Size, &p.EntryPrice, &p.EntryTime,
		&p.CurrentPrice, &p.ExitPrice, &p.ExitTime,
		&p.RealizedPnL, &p.GasCosts,
		&status, &strategy,
	)
	if err != nil {
		return domain.Position{}, err
	}
	p.Outcome = domain.Outcome(outcome)
	p.Status = domain.PositionStatus(status)
	p.Strategy = domain.Kind(strategy)
	return p, nil
}

func scanPositionRows(rows pgx.Rows) ([]domain.Position, error) {
	var positions []domain.Position
	for rows.Next() {
		p, err := scanPositionRow(rows)
		if err != nil {
			return nil, err
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

// Create inserts a new position.
func (s *PositionStore) Create(ctx context.Context, p domain.Position) error {
	const query = `
		INSERT INTO positions (
			id, market_id, outcome, size, entry_price, entry_time,
			current_price, exit_price, exit_time, realized_pnl, gas_costs,
			status, strategy, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11,
			$12, $13, NOW()
		)`

	_, err := s.pool.Exec(ctx, query,
		p.ID, p.MarketID, string(p.Outcome),
		p.Size, p.EntryPrice, p.EntryTime,
		p.CurrentPrice, p.ExitPrice, p.ExitTime,
		p.RealizedPnL, p.GasCosts,
		string(p.Status), string(p.Strategy),
	)
	if err != nil {
		return fmt.Errorf("postgres: create position %s: %w", p.ID, err)
	}
	return nil
}

// Update replaces all mutable fields of a position.
func (s *PositionStore) Update(ctx context.Context, p domain.Position) error {
	const query = `
		UPDATE positions SET
			market_id     = $2,
			outcome       = $3,
			size          = $4,
			entry_price   = $5,
			entry_time    = $6,
			current_price = $7,
			exit_price    = $8,
			exit_time     = $9,
			realized_pnl  = $10,
			gas_costs     = $11,
			status        = $12,
			strategy      = $13,
			updated_at    = NOW()
		WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query,
		p.ID, p.MarketID, string(p.Outcome),
		p.Size, p.EntryPrice, p.EntryTime,
		p.CurrentPrice, p.ExitPrice, p.ExitTime,
		p.RealizedPnL, p.GasCosts,
		string(p.Status), string(p.Strategy),
	)
	if err != nil {
		return fmt.Errorf("postgres: update position %s: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: update position %s: %w", p.ID, domain.ErrNotFound)
	}
	return nil
}

// Close marks a position as exited at the given price. The realized PnL is
// computed in SQL from the stored entry so concurrent updaters cannot race a
// stale in-memory copy.
func (s *PositionStore) Close(ctx context.Context, id string, exitPrice float64, status domain.PositionStatus) error {
	const query = `
		UPDATE positions SET
			exit_price   = $2,
			exit_time    = NOW(),
			realized_pnl = ($2 - entry_price) * size - gas_costs,
			status       = $3,
			updated_at   = NOW()
		WHERE id = $1 AND exit_price IS NULL`

	tag, err := s.pool.Exec(ctx, query, id, exitPrice, string(status))
	if err != nil {
		return fmt.Errorf("postgres: close position %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: close position %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// GetByID returns a single position by its ID.
func (s *PositionStore) GetByID(ctx context.Context, id string) (domain.Position, error) {
	query := `SELECT ` + positionSelectCols + ` FROM positions WHERE id = $1`

	p, err := scanPositionRow(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Position{}, fmt.Errorf("postgres: position %s: %w", id, domain.ErrNotFound)
		}
		return domain.Position{}, fmt.Errorf("postgres: get position %s: %w", id, err)
	}
	return p, nil
}

// ListOpen returns all positions that have not been exited.
func (s *PositionStore) ListOpen(ctx context.Context) ([]domain.Position, error) {
	query := `SELECT ` + positionSelectCols + ` FROM positions
		WHERE exit_price IS NULL ORDER BY entry_time DESC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: list open positions: %w", err)
	}
	defer rows.Close()

	positions, err := scanPositionRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan open positions: %w", err)
	}
	return positions, nil
}

// ListHistory returns closed positions with pagination and optional time
// filtering on the exit time.
func (s *PositionStore) ListHistory(ctx context.Context, opts domain.ListOpts) ([]domain.Position, error) {
	query := `SELECT ` + positionSelectCols + ` FROM positions WHERE exit_price IS NOT NULL`
	args := []any{}
	argIdx := 1

	if opts.Since != nil {
		query += fmt.Sprintf(" AND exit_time >= $%d", argIdx)
		args = append(args, *opts.Since)
		argIdx++
	}
	if opts.Until != nil {
		query += fmt.Sprintf(" AND exit_time <= $%d", argIdx)
		args = append(args, *opts.Until)
		argIdx++
	}

	query += " ORDER BY exit_time DESC"

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list position history: %w", err)
	}
	defer rows.Close()

	positions, err := scanPositionRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan position history: %w", err)
	}
	return positions, nil
}
