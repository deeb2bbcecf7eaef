// Package providers defines the external data dependencies of the
// display service. Implementations live in the provider package; tests
// substitute in-memory fakes.
package providers

import (
	"context"
	"time"

	"github.com/infinity-clubs/roulette-display/catalog"
)

// PrizeProvider serves the roulette prize catalog for a club.
type PrizeProvider interface {
	RoulettePrizes(ctx context.Context, clubID string) ([]catalog.Prize, error)
}

// RosterProvider resolves a player's public display name. Implementations
// return an empty name, not an error, when the player is unknown.
type RosterProvider interface {
	DisplayName(ctx context.Context, clubID, playerID string) (string, error)
}

// WinRecord is one persisted win for the recent-winners feed.
type WinRecord struct {
	ClubID     string    `json:"clubId"`
	PlayerName string    `json:"playerName"`
	PrizeName  string    `json:"prizeName"`
	Text       string    `json:"text"`
	WonAt      time.Time `json:"wonAt"`
}

// WinLogProvider persists wins and serves the recent history used to
// seed a display's feed on startup.
type WinLogProvider interface {
	RecordWin(ctx context.Context, record WinRecord) error
	RecentWins(ctx context.Context, clubID string, limit int) ([]WinRecord, error)
}
