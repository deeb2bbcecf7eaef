package reel

import "github.com/infinity-clubs/roulette-display/catalog"

// Frame is the display state exposed to clients on each tick. Position
// is the signed horizontal translation of the strip; Copies is how many
// repetitions of the catalog the client must render.
type Frame struct {
	Position     float64        `json:"position"`
	Copies       int            `json:"copies"`
	Spinning     bool           `json:"spinning"`
	SpinnerName  string         `json:"spinnerName,omitempty"`
	Selected     *catalog.Prize `json:"selected,omitempty"`
	QueueDepth   int            `json:"queueDepth"`
	FeedRevision uint64         `json:"feedRevision"`
}
