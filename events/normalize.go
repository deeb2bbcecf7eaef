package events

import (
	"context"
	"fmt"

	"github.com/infinity-clubs/roulette-display/catalog"
	"github.com/infinity-clubs/roulette-display/feed"
	"github.com/infinity-clubs/roulette-display/pkg/providers"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Normalizer turns raw backend spin payloads into reel-ready jobs,
// resolving player display names through the roster when the payload
// carries only an id.
type Normalizer struct {
	roster providers.RosterProvider
	logger zerolog.Logger
}

// NewNormalizer creates a normalizer. The roster may be nil when no
// player service is configured.
func NewNormalizer(roster providers.RosterProvider, logger zerolog.Logger) *Normalizer {
	return &Normalizer{
		roster: roster,
		logger: logger.With().Str("component", "normalizer").Logger(),
	}
}

// Normalize validates a spin payload and resolves its display name. A
// payload without a prize is malformed and gets dropped.
func (n *Normalizer) Normalize(ctx context.Context, clubID string, payload SpinPayload) (SpinJob, error) {
	ref := payload.PrizeRef()
	if ref == nil {
		n.logger.Debug().Str("club_id", clubID).Msg("Spin payload carries no prize, dropping")
		return SpinJob{}, fmt.Errorf("spin payload without prize")
	}

	prize := catalog.Prize{
		ID:        ref.Identity(),
		Name:      ref.Name,
		Image:     ref.Image,
		SlotIndex: ref.SlotIndex,
		// the backend sends probability as a 0-1 fraction; tiers are
		// bucketed on the percent scale
		Probability: decimal.NewFromFloat(ref.Probability).Mul(decimal.NewFromInt(100)),
	}

	name, placeholder := n.resolveName(ctx, clubID, payload)

	job := SpinJob{
		Prize:       prize,
		DisplayName: name,
	}
	if !placeholder {
		job.SpinnerLabel = name
	}

	if payload.RecentWins != nil {
		job.ReplaceFeed = make([]string, 0, len(payload.RecentWins))
		for _, item := range payload.RecentWins {
			job.ReplaceFeed = append(job.ReplaceFeed, winText(item))
		}
	}
	return job, nil
}

// resolveName walks the display-name sources in priority order. The
// second return is true when the name is a random placeholder that
// should not be shown as the spinner banner.
func (n *Normalizer) resolveName(ctx context.Context, clubID string, payload SpinPayload) (string, bool) {
	if payload.Name != "" {
		return payload.Name, false
	}
	if payload.PlayerName != "" {
		return payload.PlayerName, false
	}
	if name := payload.PlayerID.DisplayName(); name != "" {
		return name, false
	}
	if n.roster != nil && payload.PlayerID != nil && payload.PlayerID.ID != "" {
		name, err := n.roster.DisplayName(ctx, clubID, payload.PlayerID.ID)
		if err != nil {
			n.logger.Warn().Err(err).
				Str("club_id", clubID).
				Str("player_id", payload.PlayerID.ID).
				Msg("Roster lookup failed")
		} else if name != "" {
			return name, false
		}
	}
	if payload.PlayerPhone != "" {
		return feed.MaskPhone(payload.PlayerPhone), false
	}
	return feed.RandomMaskedPhone(), true
}

// winText renders one backend recent-win item into a feed line.
func winText(item WinItem) string {
	if item.Text != "" {
		return item.Text
	}
	name := item.PlayerName
	if name == "" {
		name = item.Name
	}
	if name == "" {
		name = item.PlayerID.DisplayName()
	}
	if name == "" {
		name = item.MaskedPhone
	}
	if name == "" {
		name = feed.GuestName
	}
	return fmt.Sprintf("%s won %s", name, item.PrizeName)
}
