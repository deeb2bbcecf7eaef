// Package events defines the spin payloads consumed from the backend and
// the live event stream fanned out to connected displays.
package events

import (
	"encoding/json"
	"strings"

	"github.com/infinity-clubs/roulette-display/catalog"
	"github.com/infinity-clubs/roulette-display/feed"
	"github.com/infinity-clubs/roulette-display/reel"
)

// Stream event types delivered to display clients.
const (
	EventConnected     = "connected"
	EventFrame         = "frame"
	EventSpinStarted   = "spin_started"
	EventSpinCompleted = "spin_completed"
	EventHeartbeat     = "heartbeat"
)

// Event is one message on a display's live channel.
type Event struct {
	Type      string         `json:"type"`
	Timestamp int64          `json:"timestamp"`
	Frame     *reel.Frame    `json:"frame,omitempty"`
	Feed      []feed.Entry   `json:"feed,omitempty"`
	Prize     *catalog.Prize `json:"prize,omitempty"`
}

// PlayerRef identifies the spinning player. The backend emits it either
// as a bare id string or as an expanded object, so unmarshalling accepts
// both shapes.
type PlayerRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	FIO  string `json:"fio"`
}

func (r *PlayerRef) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, `"`) {
		return json.Unmarshal(data, &r.ID)
	}
	var obj struct {
		ID    string `json:"id"`
		AltID string `json:"_id"`
		Name  string `json:"name"`
		FIO   string `json:"fio"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	r.ID = obj.ID
	if r.ID == "" {
		r.ID = obj.AltID
	}
	r.Name = obj.Name
	r.FIO = obj.FIO
	return nil
}

// DisplayName returns the embedded human name, if any.
func (r *PlayerRef) DisplayName() string {
	if r == nil {
		return ""
	}
	if r.Name != "" {
		return r.Name
	}
	return r.FIO
}

// PrizePayload is the wire shape of a prize inside a spin event.
type PrizePayload struct {
	ID          string  `json:"id"`
	AltID       string  `json:"_id"`
	Name        string  `json:"name"`
	Image       string  `json:"image"`
	SlotIndex   int     `json:"slotIndex"`
	Probability float64 `json:"probability"`
}

// Identity returns the prize id, tolerating either id field.
func (p *PrizePayload) Identity() string {
	if p.ID != "" {
		return p.ID
	}
	return p.AltID
}

// WinItem is one backend-rendered recent win. Older backend versions
// send a pre-rendered text; newer ones send structured fields.
type WinItem struct {
	Text        string     `json:"text"`
	PrizeName   string     `json:"prizeName"`
	PlayerName  string     `json:"playerName"`
	Name        string     `json:"name"`
	MaskedPhone string     `json:"maskedPhone"`
	PlayerID    *PlayerRef `json:"playerId"`
}

// SpinPayload is the spin command consumed from the backend. The prize
// may arrive at the top level or nested under spin.
type SpinPayload struct {
	Prize *PrizePayload `json:"prize"`
	Spin  *struct {
		Prize *PrizePayload `json:"prize"`
	} `json:"spin"`

	PlayerPhone string     `json:"playerPhone"`
	PlayerName  string     `json:"playerName"`
	Name        string     `json:"name"`
	PlayerID    *PlayerRef `json:"playerId"`

	RecentWins []WinItem `json:"recentWins"`
}

// PrizeRef resolves the winning prize from either placement.
func (p *SpinPayload) PrizeRef() *PrizePayload {
	if p.Prize != nil {
		return p.Prize
	}
	if p.Spin != nil {
		return p.Spin.Prize
	}
	return nil
}

// SpinJob is a normalized spin ready for the reel. SpinnerLabel is empty
// when the display name is a random placeholder, so the banner over the
// reel stays blank while the feed still gets a masked entry.
type SpinJob struct {
	Prize        catalog.Prize
	DisplayName  string
	SpinnerLabel string
	// ReplaceFeed, when non-nil, swaps the whole feed instead of
	// appending the single win.
	ReplaceFeed []string
}
