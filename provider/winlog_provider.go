package provider

import (
	"context"
	"fmt"

	"github.com/infinity-clubs/roulette-display/pkg/providers"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// WinLogProvider persists wins in Postgres and serves the history that
// seeds a display's feed after a restart.
type WinLogProvider struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewWinLogProvider creates a win log provider over the given pool.
func NewWinLogProvider(pool *pgxpool.Pool, logger zerolog.Logger) *WinLogProvider {
	return &WinLogProvider{
		pool:   pool,
		logger: logger.With().Str("component", "winlog_provider").Logger(),
	}
}

// RecordWin inserts one win row.
func (p *WinLogProvider) RecordWin(ctx context.Context, record providers.WinRecord) error {
	const query = `
		INSERT INTO roulette_wins (club_id, player_name, prize_name, text, won_at)
		VALUES ($1, $2, $3, $4, $5)`

	if _, err := p.pool.Exec(ctx, query,
		record.ClubID, record.PlayerName, record.PrizeName, record.Text, record.WonAt,
	); err != nil {
		return fmt.Errorf("failed to insert win record: %w", err)
	}
	return nil
}

// RecentWins returns the latest wins for a club, newest first.
func (p *WinLogProvider) RecentWins(ctx context.Context, clubID string, limit int) ([]providers.WinRecord, error) {
	const query = `
		SELECT club_id, player_name, prize_name, text, won_at
		FROM roulette_wins
		WHERE club_id = $1
		ORDER BY won_at DESC
		LIMIT $2`

	rows, err := p.pool.Query(ctx, query, clubID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query win records: %w", err)
	}
	defer rows.Close()

	var records []providers.WinRecord
	for rows.Next() {
		var r providers.WinRecord
		if err := rows.Scan(&r.ClubID, &r.PlayerName, &r.PrizeName, &r.Text, &r.WonAt); err != nil {
			return nil, fmt.Errorf("failed to scan win record: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read win records: %w", err)
	}

	p.logger.Debug().
		Str("club_id", clubID).
		Int("count", len(records)).
		Msg("Recent wins loaded")
	return records, nil
}
