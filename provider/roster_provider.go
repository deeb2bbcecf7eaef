package provider

import (
	"context"
	"fmt"
	"net/url"
	"time"

	coreredis "github.com/infinity-clubs/roulette-display/db/redis"
	"github.com/infinity-clubs/roulette-display/httpclient"
	"github.com/rs/zerolog"
)

// rosterCacheTTL bounds how long a resolved name is reused before the
// player service is asked again.
const rosterCacheTTL = 10 * time.Minute

// RosterProvider resolves player display names via the player service,
// with a Redis cache in front. The cache is optional.
type RosterProvider struct {
	client *httpclient.Client
	redis  *coreredis.Client
	logger zerolog.Logger
}

// NewRosterProvider creates a roster provider. redisClient may be nil to
// skip caching.
func NewRosterProvider(client *httpclient.Client, redisClient *coreredis.Client, logger zerolog.Logger) *RosterProvider {
	return &RosterProvider{
		client: client,
		redis:  redisClient,
		logger: logger.With().Str("component", "roster_provider").Logger(),
	}
}

func (p *RosterProvider) cacheKey(clubID, playerID string) string {
	return fmt.Sprintf("roster:%s:%s", clubID, playerID)
}

type playerResponse struct {
	Name string `json:"name"`
	FIO  string `json:"fio"`
}

// DisplayName returns the player's public name, or empty when unknown.
func (p *RosterProvider) DisplayName(ctx context.Context, clubID, playerID string) (string, error) {
	key := p.cacheKey(clubID, playerID)

	if p.redis != nil {
		if cached, err := p.redis.Get(ctx, key); err == nil {
			return cached, nil
		} else if err != coreredis.ErrNotFound {
			p.logger.Warn().Err(err).Str("key", key).Msg("Roster cache read failed")
		}
	}

	path := fmt.Sprintf("/api/clubs/%s/players/%s", url.PathEscape(clubID), url.PathEscape(playerID))
	var resp playerResponse
	if err := p.client.GetJSON(ctx, path, nil, &resp); err != nil {
		return "", fmt.Errorf("player service request failed: %w", err)
	}

	name := resp.Name
	if name == "" {
		name = resp.FIO
	}

	if p.redis != nil && name != "" {
		if err := p.redis.Set(ctx, key, name, rosterCacheTTL); err != nil {
			p.logger.Warn().Err(err).Str("key", key).Msg("Roster cache write failed")
		}
	}
	return name, nil
}
