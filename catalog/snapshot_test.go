package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
)

func prize(id string, slot int) Prize {
	return Prize{ID: id, Name: "prize-" + id, SlotIndex: slot}
}

func TestNewSnapshotOrdersBySlotIndex(t *testing.T) {
	snap := NewSnapshot([]Prize{
		prize("c", 7),
		prize("a", 2),
		prize("b", 5),
	})

	got := snap.Prizes()
	if len(got) != 3 {
		t.Fatalf("expected 3 prizes, got %d", len(got))
	}
	for i, want := range []string{"a", "b", "c"} {
		if got[i].ID != want {
			t.Errorf("position %d: expected %s, got %s", i, want, got[i].ID)
		}
	}
}

func TestNewSnapshotBreaksSlotTiesByID(t *testing.T) {
	snap := NewSnapshot([]Prize{
		prize("z", 3),
		prize("a", 3),
	})

	got := snap.Prizes()
	if got[0].ID != "a" || got[1].ID != "z" {
		t.Errorf("expected [a z], got [%s %s]", got[0].ID, got[1].ID)
	}
}

func TestNewSnapshotDeduplicatesByID(t *testing.T) {
	snap := NewSnapshot([]Prize{
		prize("a", 1),
		prize("a", 9),
		prize("b", 2),
	})

	if snap.Len() != 2 {
		t.Fatalf("expected 2 prizes after dedup, got %d", snap.Len())
	}
	// first occurrence wins
	if snap.Prizes()[0].SlotIndex != 1 {
		t.Errorf("expected first occurrence of a (slot 1), got slot %d", snap.Prizes()[0].SlotIndex)
	}
}

func TestFindIndex(t *testing.T) {
	snap := NewSnapshot([]Prize{
		prize("a", 0),
		prize("b", 1),
		prize("c", 2),
		prize("d", 3),
	})

	tests := []struct {
		name    string
		ref     Prize
		wantIdx int
		wantOK  bool
	}{
		{"by identity", Prize{ID: "c", SlotIndex: 99}, 2, true},
		{"by slot index when identity unknown", Prize{ID: "missing", SlotIndex: 1}, 1, true},
		{"by slot index when identity empty", Prize{SlotIndex: 3}, 3, true},
		{"unresolved falls back to zero", Prize{ID: "missing", SlotIndex: 42}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, ok := snap.FindIndex(tt.ref)
			if idx != tt.wantIdx || ok != tt.wantOK {
				t.Errorf("FindIndex(%+v) = (%d, %v), want (%d, %v)", tt.ref, idx, ok, tt.wantIdx, tt.wantOK)
			}
		})
	}
}

func TestFindIndexEmptySnapshot(t *testing.T) {
	snap := NewSnapshot(nil)
	idx, ok := snap.FindIndex(Prize{ID: "a"})
	if idx != 0 || ok {
		t.Errorf("expected (0, false) on empty snapshot, got (%d, %v)", idx, ok)
	}
}

func TestTierFor(t *testing.T) {
	tests := []struct {
		probability string
		want        Tier
	}{
		{"0.5", TierRed},
		{"4.99", TierRed},
		{"5", TierPurple},
		{"9.99", TierPurple},
		{"10", TierGreen},
		{"14.99", TierGreen},
		{"15", TierBlue},
		{"20", TierBlue},
		{"20.01", TierGray},
		{"55", TierGray},
	}

	for _, tt := range tests {
		p := Prize{Probability: decimal.RequireFromString(tt.probability)}
		if got := p.Tier(); got != tt.want {
			t.Errorf("Tier(%s) = %s, want %s", tt.probability, got, tt.want)
		}
	}
}
