package catalog

import (
	"sort"

	"github.com/samber/lo"
)

// Snapshot is an immutable, slot-ordered, de-duplicated prize list.
// It is the source of truth for reel content and index lookup; a display
// swaps the whole snapshot between spins, never mutates one in place.
type Snapshot struct {
	prizes []Prize
}

// NewSnapshot builds a snapshot from an arbitrarily ordered prize list.
// Duplicate IDs keep their first occurrence. Ordering is slot index
// ascending with ID as the deterministic tiebreak.
func NewSnapshot(prizes []Prize) *Snapshot {
	deduped := lo.UniqBy(prizes, func(p Prize) string { return p.ID })
	ordered := make([]Prize, len(deduped))
	copy(ordered, deduped)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].SlotIndex != ordered[j].SlotIndex {
			return ordered[i].SlotIndex < ordered[j].SlotIndex
		}
		return ordered[i].ID < ordered[j].ID
	})
	return &Snapshot{prizes: ordered}
}

// Prizes returns the slot-ordered prize list. Callers must not modify it.
func (s *Snapshot) Prizes() []Prize {
	if s == nil {
		return nil
	}
	return s.prizes
}

// Len returns the number of distinct prizes (one reel copy's length).
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.prizes)
}

// FindIndex resolves a prize reference against the current ordering.
// Identity wins; slot index is the fallback because the authoritative
// server event may reference a prize by slot while the local catalog
// differs slightly in composition. Unresolved references land on
// position 0 with ok=false so the caller can log the mismatch.
func (s *Snapshot) FindIndex(ref Prize) (int, bool) {
	if s == nil || len(s.prizes) == 0 {
		return 0, false
	}
	if ref.ID != "" {
		if _, idx, found := lo.FindIndexOf(s.prizes, func(p Prize) bool { return p.ID == ref.ID }); found {
			return idx, true
		}
	}
	if _, idx, found := lo.FindIndexOf(s.prizes, func(p Prize) bool { return p.SlotIndex == ref.SlotIndex }); found {
		return idx, true
	}
	return 0, false
}
