package catalog

import "github.com/shopspring/decimal"

// Tier is the presentation bucket derived from a prize's reveal probability.
type Tier string

const (
	TierRed    Tier = "red"    // rarest, < 5%
	TierPurple Tier = "purple" // < 10%
	TierGreen  Tier = "green"  // < 15%
	TierBlue   Tier = "blue"   // <= 20%
	TierGray   Tier = "gray"   // everything else
)

var (
	tierRedMax    = decimal.NewFromInt(5)
	tierPurpleMax = decimal.NewFromInt(10)
	tierGreenMax  = decimal.NewFromInt(15)
	tierBlueMax   = decimal.NewFromInt(20)
)

// TierFor maps a probability (percent, 0-100) to its presentation tier.
func TierFor(probability decimal.Decimal) Tier {
	switch {
	case probability.LessThan(tierRedMax):
		return TierRed
	case probability.LessThan(tierPurpleMax):
		return TierPurple
	case probability.LessThan(tierGreenMax):
		return TierGreen
	case probability.LessThanOrEqual(tierBlueMax):
		return TierBlue
	default:
		return TierGray
	}
}

// Prize is one reel slot entry. Probability is informational for the
// display; actual winner selection happens server-side.
type Prize struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Image           string          `json:"image,omitempty"`
	BackgroundImage string          `json:"backgroundImage,omitempty"`
	Description     string          `json:"description,omitempty"`
	Probability     decimal.Decimal `json:"probability"`
	SlotIndex       int             `json:"slotIndex"`
}

// Tier returns the presentation tier for this prize.
func (p Prize) Tier() Tier {
	return TierFor(p.Probability)
}
