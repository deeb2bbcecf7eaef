package display

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/infinity-clubs/roulette-display/catalog"
	"github.com/infinity-clubs/roulette-display/events"
	"github.com/infinity-clubs/roulette-display/pkg/providers"
	"github.com/infinity-clubs/roulette-display/reel"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type fakePrizes struct {
	mu      sync.Mutex
	prizes  []catalog.Prize
	err     error
	fetches int
}

func (f *fakePrizes) RoulettePrizes(context.Context, string) ([]catalog.Prize, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	return f.prizes, f.err
}

type fakeWinLog struct {
	mu       sync.Mutex
	history  []providers.WinRecord
	recorded []providers.WinRecord
}

func (f *fakeWinLog) RecordWin(_ context.Context, r providers.WinRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recorded = append(f.recorded, r)
	return nil
}

func (f *fakeWinLog) RecentWins(context.Context, string, int) ([]providers.WinRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.history, nil
}

func (f *fakeWinLog) recordedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.recorded)
}

func fourPrizes() []catalog.Prize {
	out := make([]catalog.Prize, 4)
	for i := range out {
		out[i] = catalog.Prize{
			ID:          string(rune('a' + i)),
			Name:        "Prize " + string(rune('A'+i)),
			Probability: decimal.NewFromInt(10),
			SlotIndex:   i,
		}
	}
	return out
}

func fastParams() reel.Params {
	p := reel.DefaultParams()
	p.SpinDuration = 40 * time.Millisecond
	p.ResultTimeout = 50 * time.Millisecond
	return p
}

func newTestHub(prizes *fakePrizes, winLog *fakeWinLog) *Hub {
	var wl providers.WinLogProvider
	if winLog != nil {
		wl = winLog
	}
	return NewHub(Options{
		Prizes:        prizes,
		WinLog:        wl,
		Normalizer:    events.NewNormalizer(nil, zerolog.Nop()),
		Params:        fastParams(),
		FrameInterval: 10 * time.Millisecond,
		Logger:        zerolog.Nop(),
	})
}

func TestDisplayCreatedLazilyAndReused(t *testing.T) {
	prizes := &fakePrizes{prizes: fourPrizes()}
	h := newTestHub(prizes, nil)
	defer h.Stop()

	d1, err := h.Display(context.Background(), "club-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d2, err := h.Display(context.Background(), "club-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d1 != d2 {
		t.Error("expected the same display instance on second access")
	}
	if prizes.fetches != 1 {
		t.Errorf("expected 1 catalog fetch, got %d", prizes.fetches)
	}
}

func TestDisplayFeedSeededFromWinLog(t *testing.T) {
	prizes := &fakePrizes{prizes: fourPrizes()}
	winLog := &fakeWinLog{history: []providers.WinRecord{
		{Text: "Dana won Free Cola"},
		{PlayerName: "Aibek", PrizeName: "Hookah"},
		{PrizeName: "Mystery"},
	}}
	h := newTestHub(prizes, winLog)
	defer h.Stop()

	d, err := h.Display(context.Background(), "club-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries := d.FeedEntries()
	want := []string{"Dana won Free Cola", "Aibek won Hookah", "Guest won Mystery"}
	if len(entries) != len(want) {
		t.Fatalf("expected %d feed entries, got %d", len(want), len(entries))
	}
	for i := range want {
		if entries[i].Text != want[i] {
			t.Errorf("entry %d: got %q, want %q", i, entries[i].Text, want[i])
		}
	}
}

func TestDisplayErrorsWhenCatalogUnavailable(t *testing.T) {
	prizes := &fakePrizes{err: errors.New("prize service down")}
	h := newTestHub(prizes, nil)
	defer h.Stop()

	if _, err := h.Display(context.Background(), "club-1"); err == nil {
		t.Error("expected error when the catalog cannot be fetched")
	}
}

func TestDisplayErrorsWhenCatalogEmpty(t *testing.T) {
	prizes := &fakePrizes{}
	h := newTestHub(prizes, nil)
	defer h.Stop()

	if _, err := h.Display(context.Background(), "club-1"); err == nil {
		t.Error("expected error when the club has no prizes")
	}
}

func TestHandleSpinCompletesAndPersists(t *testing.T) {
	prizes := &fakePrizes{prizes: fourPrizes()}
	winLog := &fakeWinLog{}
	h := newTestHub(prizes, winLog)
	defer h.Stop()

	d, err := h.Display(context.Background(), "club-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ch, cancel := d.Subscribe(context.Background())
	defer cancel()

	payload := events.SpinPayload{
		Prize: &events.PrizePayload{ID: "c", Name: "Prize C", SlotIndex: 2},
		Name:  "Dana",
	}
	if err := h.HandleSpin(context.Background(), "club-1", payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var sawStarted, sawCompleted bool
	deadline := time.After(3 * time.Second)
	for !sawCompleted {
		select {
		case ev := <-ch:
			switch ev.Type {
			case events.EventSpinStarted:
				sawStarted = true
			case events.EventSpinCompleted:
				sawCompleted = true
				if ev.Prize == nil || ev.Prize.ID != "c" {
					t.Errorf("unexpected completed prize: %+v", ev.Prize)
				}
				if len(ev.Feed) == 0 || ev.Feed[0].Text != "Dana won Prize C" {
					t.Errorf("unexpected feed on completion: %+v", ev.Feed)
				}
			}
		case <-deadline:
			t.Fatal("spin did not complete in time")
		}
	}
	if !sawStarted {
		t.Error("expected a spin_started event before completion")
	}

	deadline = time.After(time.Second)
	for winLog.recordedCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("win was not persisted")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestHandleSpinRejectsPayloadWithoutPrize(t *testing.T) {
	prizes := &fakePrizes{prizes: fourPrizes()}
	h := newTestHub(prizes, nil)
	defer h.Stop()

	if err := h.HandleSpin(context.Background(), "club-1", events.SpinPayload{Name: "Dana"}); err == nil {
		t.Error("expected error for spin without prize")
	}
}

func TestHandleSpinReplacesFeedWhenBackendProvidesWins(t *testing.T) {
	prizes := &fakePrizes{prizes: fourPrizes()}
	h := newTestHub(prizes, nil)
	defer h.Stop()

	d, err := h.Display(context.Background(), "club-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ch, cancel := d.Subscribe(context.Background())
	defer cancel()

	payload := events.SpinPayload{
		Prize: &events.PrizePayload{ID: "a", Name: "Prize A"},
		Name:  "Dana",
		RecentWins: []events.WinItem{
			{Text: "fresh line 1"},
			{Text: "fresh line 2"},
		},
	}
	if err := h.HandleSpin(context.Background(), "club-1", payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	deadline := time.After(3 * time.Second)
	for {
		select {
		case ev := <-ch:
			if ev.Type != events.EventSpinCompleted {
				continue
			}
			if len(ev.Feed) != 2 || ev.Feed[0].Text != "fresh line 1" {
				t.Errorf("expected replaced feed, got %+v", ev.Feed)
			}
			return
		case <-deadline:
			t.Fatal("spin did not complete in time")
		}
	}
}

func TestReloadSwapsCatalog(t *testing.T) {
	prizes := &fakePrizes{prizes: fourPrizes()}
	h := newTestHub(prizes, nil)
	defer h.Stop()

	d, err := h.Display(context.Background(), "club-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	prizes.mu.Lock()
	prizes.prizes = fourPrizes()[:2]
	prizes.mu.Unlock()

	if err := h.Reload(context.Background(), "club-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len(d.Prizes()); got != 2 {
		t.Errorf("expected 2 prizes after reload, got %d", got)
	}
}

func TestReloadUnknownClubIsNoop(t *testing.T) {
	prizes := &fakePrizes{prizes: fourPrizes()}
	h := newTestHub(prizes, nil)
	defer h.Stop()

	if err := h.Reload(context.Background(), "club-9"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if prizes.fetches != 0 {
		t.Errorf("expected no catalog fetch for unknown club, got %d", prizes.fetches)
	}
}

func TestDismissResultClearsOverlayBeforeTimeout(t *testing.T) {
	prizes := &fakePrizes{prizes: fourPrizes()}
	params := fastParams()
	// overlay would stay up well past the test without the dismissal
	params.ResultTimeout = time.Minute
	h := NewHub(Options{
		Prizes:        prizes,
		Normalizer:    events.NewNormalizer(nil, zerolog.Nop()),
		Params:        params,
		FrameInterval: 10 * time.Millisecond,
		Logger:        zerolog.Nop(),
	})
	defer h.Stop()

	d, err := h.Display(context.Background(), "club-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ch, cancel := d.Subscribe(context.Background())
	defer cancel()

	payload := events.SpinPayload{
		Prize: &events.PrizePayload{ID: "b", Name: "Prize B", SlotIndex: 1},
		Name:  "Dana",
	}
	if err := h.HandleSpin(context.Background(), "club-1", payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	deadline := time.After(3 * time.Second)
	for done := false; !done; {
		select {
		case ev := <-ch:
			done = ev.Type == events.EventSpinCompleted
		case <-deadline:
			t.Fatal("spin did not complete in time")
		}
	}

	if d.Frame().Selected == nil {
		t.Fatal("expected winner overlay after completion")
	}
	h.DismissResult(context.Background(), "club-1")
	if d.Frame().Selected != nil {
		t.Error("expected overlay cleared after dismissal")
	}
}

func TestDismissResultUnknownClubIsNoop(t *testing.T) {
	prizes := &fakePrizes{prizes: fourPrizes()}
	h := newTestHub(prizes, nil)
	defer h.Stop()

	h.DismissResult(context.Background(), "club-9")
	if prizes.fetches != 0 {
		t.Errorf("expected no catalog fetch for unknown club, got %d", prizes.fetches)
	}
}

func TestFrameLoopPublishesFrames(t *testing.T) {
	prizes := &fakePrizes{prizes: fourPrizes()}
	h := newTestHub(prizes, nil)
	defer h.Stop()

	d, err := h.Display(context.Background(), "club-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ch, cancel := d.Subscribe(context.Background())
	defer cancel()

	deadline := time.After(time.Second)
	for {
		select {
		case ev := <-ch:
			if ev.Type == events.EventFrame && ev.Frame != nil {
				return
			}
		case <-deadline:
			t.Fatal("no frame event published")
		}
	}
}
