package reel

import "time"

// Params holds the reel geometry and animation tuning for one display.
// All distances are strip pixels; the reference display renders 400px
// prize cards with a 24px gap.
type Params struct {
	ItemWidth     float64
	PaddingLeft   float64
	ViewportWidth float64

	// IdleSpeed is pixels of leftward drift per 16ms frame unit.
	IdleSpeed     float64
	MaxFrameUnits float64

	SpinDuration   time.Duration
	ExtraRotations int
	EasingExponent float64

	MinCopies          int
	ReplenishThreshold int
	ReplenishCount     int

	// ResultTimeout is how long a completed spin's prize stays selected
	// before the overlay auto-dismisses.
	ResultTimeout time.Duration

	// QueueCap bounds the pending spin queue; zero means unbounded.
	QueueCap int
}

// DefaultParams returns the production display tuning.
func DefaultParams() Params {
	return Params{
		ItemWidth:          424,
		PaddingLeft:        20,
		ViewportWidth:      1920,
		IdleSpeed:          15.5,
		MaxFrameUnits:      50,
		SpinDuration:       15 * time.Second,
		ExtraRotations:     6,
		EasingExponent:     8,
		MinCopies:          50,
		ReplenishThreshold: 25,
		ReplenishCount:     25,
		ResultTimeout:      7 * time.Second,
	}
}

func (p *Params) normalize() {
	def := DefaultParams()
	if p.ItemWidth <= 0 {
		p.ItemWidth = def.ItemWidth
	}
	if p.ViewportWidth <= 0 {
		p.ViewportWidth = def.ViewportWidth
	}
	if p.IdleSpeed <= 0 {
		p.IdleSpeed = def.IdleSpeed
	}
	if p.MaxFrameUnits <= 0 {
		p.MaxFrameUnits = def.MaxFrameUnits
	}
	if p.SpinDuration <= 0 {
		p.SpinDuration = def.SpinDuration
	}
	if p.ExtraRotations <= 0 {
		p.ExtraRotations = def.ExtraRotations
	}
	if p.EasingExponent <= 0 {
		p.EasingExponent = def.EasingExponent
	}
	if p.MinCopies <= 0 {
		p.MinCopies = def.MinCopies
	}
	if p.ReplenishThreshold <= 0 {
		p.ReplenishThreshold = def.ReplenishThreshold
	}
	if p.ReplenishCount <= 0 {
		p.ReplenishCount = def.ReplenishCount
	}
	if p.ResultTimeout <= 0 {
		p.ResultTimeout = def.ResultTimeout
	}
}
