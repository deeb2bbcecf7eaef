// Package provider contains the concrete implementations of the data
// interfaces in pkg/providers, backed by the loyalty backend's HTTP
// APIs, Redis, and Postgres.
package provider

import (
	"context"
	"fmt"
	"net/url"

	"github.com/infinity-clubs/roulette-display/catalog"
	"github.com/infinity-clubs/roulette-display/errors"
	"github.com/infinity-clubs/roulette-display/httpclient"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// PrizeProvider fetches a club's roulette catalog from the prize service.
type PrizeProvider struct {
	client *httpclient.Client
	logger zerolog.Logger
}

// NewPrizeProvider creates a prize provider over the given HTTP client.
func NewPrizeProvider(client *httpclient.Client, logger zerolog.Logger) *PrizeProvider {
	return &PrizeProvider{
		client: client,
		logger: logger.With().Str("component", "prize_provider").Logger(),
	}
}

// prizeDTO is the prize service's wire shape.
type prizeDTO struct {
	ID              string  `json:"id"`
	AltID           string  `json:"_id"`
	Name            string  `json:"name"`
	Image           string  `json:"image"`
	BackgroundImage string  `json:"backgroundImage"`
	Description     string  `json:"description"`
	Probability     float64 `json:"probability"`
	SlotIndex       int     `json:"slotIndex"`
	Active          bool    `json:"active"`
}

type prizeListResponse struct {
	Prizes []prizeDTO `json:"prizes"`
}

// probabilityPercent converts the backend's 0-1 fraction to the percent
// scale the tier thresholds are defined in.
func probabilityPercent(fraction float64) decimal.Decimal {
	return decimal.NewFromFloat(fraction).Mul(decimal.NewFromInt(100))
}

// RoulettePrizes returns the active prizes configured for a club.
func (p *PrizeProvider) RoulettePrizes(ctx context.Context, clubID string) ([]catalog.Prize, error) {
	path := fmt.Sprintf("/api/clubs/%s/roulette/prizes", url.PathEscape(clubID))

	var resp prizeListResponse
	if err := p.client.GetJSON(ctx, path, nil, &resp); err != nil {
		p.logger.Error().Err(err).Str("club_id", clubID).Msg("Failed to fetch prize catalog")
		return nil, errors.Wrap(err, errors.ErrPrizeServiceError, "prize service request failed")
	}

	active := lo.Filter(resp.Prizes, func(dto prizeDTO, _ int) bool {
		return dto.Active
	})

	prizes := lo.Map(active, func(dto prizeDTO, _ int) catalog.Prize {
		id := dto.ID
		if id == "" {
			id = dto.AltID
		}
		return catalog.Prize{
			ID:              id,
			Name:            dto.Name,
			Image:           dto.Image,
			BackgroundImage: dto.BackgroundImage,
			Description:     dto.Description,
			Probability:     probabilityPercent(dto.Probability),
			SlotIndex:       dto.SlotIndex,
		}
	})

	p.logger.Debug().
		Str("club_id", clubID).
		Int("count", len(prizes)).
		Msg("Prize catalog fetched")
	return prizes, nil
}
