package events

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/infinity-clubs/roulette-display/catalog"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type fakeRoster struct {
	names map[string]string
	err   error
}

func (f *fakeRoster) DisplayName(_ context.Context, _, playerID string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.names[playerID], nil
}

func prizePayload() *PrizePayload {
	return &PrizePayload{ID: "p1", Name: "Free Cola", SlotIndex: 2, Probability: 0.125}
}

func TestNormalizeScalesProbabilityToPercent(t *testing.T) {
	n := NewNormalizer(nil, zerolog.Nop())

	job, err := n.Normalize(context.Background(), "club-1", SpinPayload{Prize: prizePayload(), Name: "Dana"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := decimal.NewFromFloat(12.5); !job.Prize.Probability.Equal(want) {
		t.Errorf("probability = %s, want %s", job.Prize.Probability, want)
	}
	if got := job.Prize.Tier(); got != catalog.TierGreen {
		t.Errorf("tier = %s, want %s", got, catalog.TierGreen)
	}
}

func TestNormalizeResolvesNamePriority(t *testing.T) {
	roster := &fakeRoster{names: map[string]string{"u1": "Roster Name"}}
	n := NewNormalizer(roster, zerolog.Nop())

	tests := []struct {
		name    string
		payload SpinPayload
		want    string
		banner  bool
	}{
		{
			name:    "explicit name wins",
			payload: SpinPayload{Prize: prizePayload(), Name: "Top", PlayerName: "Second", PlayerID: &PlayerRef{ID: "u1"}},
			want:    "Top",
			banner:  true,
		},
		{
			name:    "player name next",
			payload: SpinPayload{Prize: prizePayload(), PlayerName: "Second", PlayerID: &PlayerRef{ID: "u1"}},
			want:    "Second",
			banner:  true,
		},
		{
			name:    "embedded player ref name",
			payload: SpinPayload{Prize: prizePayload(), PlayerID: &PlayerRef{ID: "u9", Name: "Embedded"}},
			want:    "Embedded",
			banner:  true,
		},
		{
			name:    "embedded fio fallback",
			payload: SpinPayload{Prize: prizePayload(), PlayerID: &PlayerRef{ID: "u9", FIO: "Full Name"}},
			want:    "Full Name",
			banner:  true,
		},
		{
			name:    "roster lookup",
			payload: SpinPayload{Prize: prizePayload(), PlayerID: &PlayerRef{ID: "u1"}},
			want:    "Roster Name",
			banner:  true,
		},
		{
			name:    "masked phone",
			payload: SpinPayload{Prize: prizePayload(), PlayerPhone: "+77713323738"},
			want:    "+7 771 *** 3738",
			banner:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job, err := n.Normalize(context.Background(), "club-1", tt.payload)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if job.DisplayName != tt.want {
				t.Errorf("display name = %q, want %q", job.DisplayName, tt.want)
			}
			if tt.banner && job.SpinnerLabel != tt.want {
				t.Errorf("spinner label = %q, want %q", job.SpinnerLabel, tt.want)
			}
		})
	}
}

func TestNormalizeAnonymousGetsPlaceholderWithoutBanner(t *testing.T) {
	n := NewNormalizer(nil, zerolog.Nop())

	job, err := n.Normalize(context.Background(), "club-1", SpinPayload{Prize: prizePayload()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(job.DisplayName, "***") {
		t.Errorf("expected masked placeholder display name, got %q", job.DisplayName)
	}
	if job.SpinnerLabel != "" {
		t.Errorf("expected empty spinner label for placeholder, got %q", job.SpinnerLabel)
	}
}

func TestNormalizeRosterErrorFallsThrough(t *testing.T) {
	roster := &fakeRoster{err: errors.New("roster down")}
	n := NewNormalizer(roster, zerolog.Nop())

	payload := SpinPayload{Prize: prizePayload(), PlayerID: &PlayerRef{ID: "u1"}, PlayerPhone: "87713323738"}
	job, err := n.Normalize(context.Background(), "club-1", payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.DisplayName != "+8 771 *** 3738" {
		t.Errorf("expected phone fallback after roster error, got %q", job.DisplayName)
	}
}

func TestNormalizeDropsPayloadWithoutPrize(t *testing.T) {
	n := NewNormalizer(nil, zerolog.Nop())

	if _, err := n.Normalize(context.Background(), "club-1", SpinPayload{Name: "Dana"}); err == nil {
		t.Error("expected error for payload without prize")
	}
}

func TestNormalizeNestedPrizeAndAltID(t *testing.T) {
	n := NewNormalizer(nil, zerolog.Nop())

	payload := SpinPayload{
		Spin: &struct {
			Prize *PrizePayload `json:"prize"`
		}{Prize: &PrizePayload{AltID: "mongo-id", Name: "Bonus", SlotIndex: 5}},
		Name: "Dana",
	}
	job, err := n.Normalize(context.Background(), "club-1", payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.Prize.ID != "mongo-id" {
		t.Errorf("expected alt id resolution, got %q", job.Prize.ID)
	}
	if job.Prize.SlotIndex != 5 {
		t.Errorf("expected slot index 5, got %d", job.Prize.SlotIndex)
	}
}

func TestNormalizeBuildsReplaceFeed(t *testing.T) {
	n := NewNormalizer(nil, zerolog.Nop())

	payload := SpinPayload{
		Prize: prizePayload(),
		Name:  "Dana",
		RecentWins: []WinItem{
			{Text: "pre-rendered line"},
			{PlayerName: "Aibek", PrizeName: "Free Cola"},
			{MaskedPhone: "+7 701 *** 1122", PrizeName: "Hookah"},
			{PrizeName: "Mystery"},
		},
	}
	job, err := n.Normalize(context.Background(), "club-1", payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{
		"pre-rendered line",
		"Aibek won Free Cola",
		"+7 701 *** 1122 won Hookah",
		"Guest won Mystery",
	}
	if len(job.ReplaceFeed) != len(want) {
		t.Fatalf("expected %d feed lines, got %d", len(want), len(job.ReplaceFeed))
	}
	for i := range want {
		if job.ReplaceFeed[i] != want[i] {
			t.Errorf("line %d: got %q, want %q", i, job.ReplaceFeed[i], want[i])
		}
	}
}

func TestNormalizeNoRecentWinsLeavesFeedNil(t *testing.T) {
	n := NewNormalizer(nil, zerolog.Nop())

	job, err := n.Normalize(context.Background(), "club-1", SpinPayload{Prize: prizePayload(), Name: "Dana"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.ReplaceFeed != nil {
		t.Errorf("expected nil replace feed, got %v", job.ReplaceFeed)
	}
}

func TestPlayerRefUnmarshalString(t *testing.T) {
	var payload SpinPayload
	raw := `{"prize":{"id":"p1","name":"Cola","slotIndex":1},"playerId":"u-42"}`
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload.PlayerID == nil || payload.PlayerID.ID != "u-42" {
		t.Errorf("expected player id u-42, got %+v", payload.PlayerID)
	}
}

func TestPlayerRefUnmarshalObject(t *testing.T) {
	tests := []struct {
		raw      string
		wantID   string
		wantName string
	}{
		{`{"id":"u1","name":"Dana"}`, "u1", "Dana"},
		{`{"_id":"m1","fio":"Full Name"}`, "m1", "Full Name"},
	}
	for _, tt := range tests {
		var ref PlayerRef
		if err := json.Unmarshal([]byte(tt.raw), &ref); err != nil {
			t.Fatalf("unmarshal %q: %v", tt.raw, err)
		}
		if ref.ID != tt.wantID {
			t.Errorf("%q: id = %q, want %q", tt.raw, ref.ID, tt.wantID)
		}
		if got := ref.DisplayName(); got != tt.wantName {
			t.Errorf("%q: display name = %q, want %q", tt.raw, got, tt.wantName)
		}
	}
}
