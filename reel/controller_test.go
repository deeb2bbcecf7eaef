package reel

import (
	"math"
	"testing"
	"time"

	"github.com/infinity-clubs/roulette-display/catalog"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (fc *fakeClock) Now() time.Time { return fc.t }

func (fc *fakeClock) Advance(d time.Duration) time.Time {
	fc.t = fc.t.Add(d)
	return fc.t
}

func testSnapshot(n int) *catalog.Snapshot {
	prizes := make([]catalog.Prize, n)
	for i := range prizes {
		prizes[i] = catalog.Prize{
			ID:          string(rune('a' + i)),
			Name:        "Prize " + string(rune('A'+i)),
			Probability: decimal.NewFromInt(10),
			SlotIndex:   i,
		}
	}
	return catalog.NewSnapshot(prizes)
}

func testParams() Params {
	return Params{
		ItemWidth:          100,
		PaddingLeft:        0,
		ViewportWidth:      400,
		IdleSpeed:          15.5,
		MaxFrameUnits:      50,
		SpinDuration:       15 * time.Second,
		ExtraRotations:     1,
		EasingExponent:     8,
		MinCopies:          50,
		ReplenishThreshold: 25,
		ReplenishCount:     25,
		ResultTimeout:      7 * time.Second,
	}
}

func newTestController(t *testing.T, params Params, snap *catalog.Snapshot) (*Controller, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	c := NewController(params, snap, zerolog.Nop(), WithClock(clock.Now))
	return c, clock
}

func TestIdleDriftMovesLeft(t *testing.T) {
	c, clock := newTestController(t, testParams(), testSnapshot(4))

	frame := c.Tick(clock.Advance(16 * time.Millisecond))
	if math.Abs(frame.Position-(-15.5)) > 1e-9 {
		t.Errorf("expected position -15.5 after one frame unit, got %v", frame.Position)
	}
	frame = c.Tick(clock.Advance(32 * time.Millisecond))
	if math.Abs(frame.Position-(-46.5)) > 1e-9 {
		t.Errorf("expected position -46.5 after two more frame units, got %v", frame.Position)
	}
}

func TestIdleDriftClampsLargeGaps(t *testing.T) {
	params := testParams()
	params.MaxFrameUnits = 50
	c, clock := newTestController(t, params, testSnapshot(40))

	// a 10s stall must advance at most MaxFrameUnits worth of drift
	frame := c.Tick(clock.Advance(10 * time.Second))
	want := -params.IdleSpeed * params.MaxFrameUnits
	if math.Abs(frame.Position-want) > 1e-9 {
		t.Errorf("expected clamped position %v, got %v", want, frame.Position)
	}
}

func TestIdleWraparoundKeepsPositionInPeriod(t *testing.T) {
	c, clock := newTestController(t, testParams(), testSnapshot(4))
	oneSet := 4 * 100.0

	for i := 0; i < 200; i++ {
		frame := c.Tick(clock.Advance(16 * time.Millisecond))
		if frame.Position > 0 || frame.Position < -oneSet-1e-9 {
			t.Fatalf("tick %d: position %v escaped (-%v, 0]", i, frame.Position, oneSet)
		}
	}
}

func TestSpinTickBeforeStartHoldsPosition(t *testing.T) {
	snap := testSnapshot(4)
	c, clock := newTestController(t, testParams(), snap)

	// drift a little so startPos is not the zero value
	c.Tick(clock.Advance(16 * time.Millisecond))
	start := c.Frame().Position

	// the enqueue lands between ticks; the next ticker value was stamped
	// before the spin started
	c.Enqueue(Job{Prize: snap.Prizes()[2]})
	frame := c.Tick(clock.Now().Add(-20 * time.Millisecond))

	if frame.Position > start+1e-9 {
		t.Errorf("position moved right of start (%v -> %v) on a stale tick", start, frame.Position)
	}
	if math.Abs(frame.Position-start) > 1e-9 {
		t.Errorf("expected position held at %v on a stale tick, got %v", start, frame.Position)
	}
	if !frame.Spinning {
		t.Error("expected spin to stay active through a stale tick")
	}
}

func TestIdleWraparoundSurvivesStallOnTinyCatalog(t *testing.T) {
	params := testParams()
	c, clock := newTestController(t, params, testSnapshot(1))
	oneSet := 100.0

	// clamped drift for a 10s stall is 775px, several periods of a
	// one-prize catalog
	frame := c.Tick(clock.Advance(10 * time.Second))
	if frame.Position > 0 || frame.Position < -oneSet-1e-9 {
		t.Errorf("position %v escaped (-%v, 0] after a long stall", frame.Position, oneSet)
	}
}

func TestSpinTargetMath(t *testing.T) {
	snap := testSnapshot(4)
	params := testParams()
	c, clock := newTestController(t, params, snap)

	winner := snap.Prizes()[2]
	c.Enqueue(Job{Prize: winner})

	// centerOffset = 400/2 - 100/2 - 0 = 150; T = 150 - 2*100 = -50
	// from startPos 0: k = floor((0 - -50)/400) - 1 = -1
	// end = -50 + (-1)*400 - 1*400 = -850
	c.mu.Lock()
	end := c.spin.endPos
	c.mu.Unlock()
	if math.Abs(end-(-850)) > 1e-9 {
		t.Fatalf("expected end position -850, got %v", end)
	}

	frame := c.Tick(clock.Advance(params.SpinDuration))
	if frame.Spinning {
		t.Error("expected spin to complete at full duration")
	}
	if math.Abs(frame.Position-(-850)) > 1e-12 {
		t.Errorf("expected exact snap to -850, got %v", frame.Position)
	}
	if frame.Selected == nil || frame.Selected.ID != winner.ID {
		t.Errorf("expected selected prize %q, got %+v", winner.ID, frame.Selected)
	}
}

func TestSpinTrajectoryMonotonicNonIncreasing(t *testing.T) {
	snap := testSnapshot(4)
	params := testParams()
	params.ExtraRotations = 6
	c, clock := newTestController(t, params, snap)

	c.Enqueue(Job{Prize: snap.Prizes()[1]})

	prev := c.Frame().Position
	for i := 0; i < 300; i++ {
		frame := c.Tick(clock.Advance(50 * time.Millisecond))
		if frame.Position > prev+1e-9 {
			t.Fatalf("tick %d: position moved right during spin (%v -> %v)", i, prev, frame.Position)
		}
		prev = frame.Position
		if !frame.Spinning {
			break
		}
	}
	if c.State() != StateIdle {
		t.Fatal("spin never completed")
	}
}

func TestSpinAlwaysTravelsAtLeastOneLap(t *testing.T) {
	snap := testSnapshot(4)
	params := testParams()
	params.ExtraRotations = 1
	oneSet := 4 * 100.0

	// the landing slot directly under the pointer must still travel
	for startIdx := 0; startIdx < 4; startIdx++ {
		c, _ := newTestController(t, params, snap)
		c.mu.Lock()
		c.pos = 150 - float64(startIdx)*100 // pointer already on slot startIdx
		start := c.pos
		c.mu.Unlock()

		c.Enqueue(Job{Prize: snap.Prizes()[startIdx]})

		c.mu.Lock()
		travel := start - c.spin.endPos
		c.mu.Unlock()
		if travel < oneSet-1e-9 {
			t.Errorf("start slot %d: travel %v shorter than one lap %v", startIdx, travel, oneSet)
		}
	}
}

func TestSpinGrowsCopiesToCoverTravel(t *testing.T) {
	snap := testSnapshot(4)
	params := testParams()
	params.MinCopies = 2
	params.ExtraRotations = 10
	c, _ := newTestController(t, params, snap)

	c.Enqueue(Job{Prize: snap.Prizes()[3]})

	c.mu.Lock()
	end := c.spin.endPos
	copies := c.copies
	c.mu.Unlock()

	oneSet := 4 * 100.0
	if float64(copies)*oneSet < -end+params.ViewportWidth {
		t.Errorf("copies %d cover %v px, travel needs %v px", copies, float64(copies)*oneSet, -end+params.ViewportWidth)
	}
}

func TestUnresolvedPrizeLandsOnSlotZero(t *testing.T) {
	snap := testSnapshot(4)
	c, clock := newTestController(t, testParams(), snap)

	ghost := catalog.Prize{ID: "ghost", Name: "Ghost", SlotIndex: 99}
	done := false
	c.Enqueue(Job{Prize: ghost, OnComplete: func(catalog.Prize) { done = true }})

	// slot 0 target T = 150; from 0: k = floor(-150/400)-1 = -2; end = 150-800-400 = -1050
	c.mu.Lock()
	end := c.spin.endPos
	c.mu.Unlock()
	if math.Abs(end-(-1050)) > 1e-9 {
		t.Errorf("expected fallback end -1050, got %v", end)
	}

	c.Tick(clock.Advance(16 * time.Second))
	if !done {
		t.Error("expected OnComplete to fire for unresolved prize")
	}
}

func TestBurstOfSpinsRunsInOrder(t *testing.T) {
	snap := testSnapshot(4)
	params := testParams()
	c, clock := newTestController(t, params, snap)

	var order []string
	record := func(p catalog.Prize) { order = append(order, p.ID) }
	c.Enqueue(Job{Prize: snap.Prizes()[0], OnComplete: record})
	c.Enqueue(Job{Prize: snap.Prizes()[1], OnComplete: record})
	c.Enqueue(Job{Prize: snap.Prizes()[2], OnComplete: record})

	frame := c.Frame()
	if !frame.Spinning || frame.QueueDepth != 2 {
		t.Fatalf("expected active spin with 2 queued, got spinning=%v depth=%d", frame.Spinning, frame.QueueDepth)
	}

	for i := 0; i < 3*20; i++ {
		c.Tick(clock.Advance(time.Second))
		if len(order) == 3 {
			break
		}
	}
	if len(order) != 3 {
		t.Fatalf("expected 3 completed spins, got %d", len(order))
	}
	for i, want := range []string{"a", "b", "c"} {
		if order[i] != want {
			t.Errorf("completion %d: expected %q, got %q", i, want, order[i])
		}
	}
}

func TestQueueCompletionStartsNextSameTick(t *testing.T) {
	snap := testSnapshot(4)
	c, clock := newTestController(t, testParams(), snap)

	c.Enqueue(Job{Prize: snap.Prizes()[0]})
	c.Enqueue(Job{Prize: snap.Prizes()[1]})

	frame := c.Tick(clock.Advance(testParams().SpinDuration))
	if !frame.Spinning {
		t.Error("expected next queued spin to start within the completing tick")
	}
	if frame.QueueDepth != 0 {
		t.Errorf("expected empty queue, got depth %d", frame.QueueDepth)
	}
}

func TestQueueCapDropsNewest(t *testing.T) {
	snap := testSnapshot(4)
	params := testParams()
	params.QueueCap = 2
	c, _ := newTestController(t, params, snap)

	// first job starts immediately, next two fill the queue
	for i := 0; i < 3; i++ {
		if !c.Enqueue(Job{Prize: snap.Prizes()[i]}) {
			t.Fatalf("job %d unexpectedly rejected", i)
		}
	}
	if c.Enqueue(Job{Prize: snap.Prizes()[3]}) {
		t.Error("expected overflow job to be dropped")
	}
	if depth := c.Frame().QueueDepth; depth != 2 {
		t.Errorf("expected queue depth 2, got %d", depth)
	}
}

func TestSpinnerNameShownDuringSpinOnly(t *testing.T) {
	snap := testSnapshot(4)
	c, clock := newTestController(t, testParams(), snap)

	c.Enqueue(Job{Prize: snap.Prizes()[1], SpinnerName: "Dana"})
	if name := c.Frame().SpinnerName; name != "Dana" {
		t.Errorf("expected spinner name during spin, got %q", name)
	}

	frame := c.Tick(clock.Advance(16 * time.Second))
	if frame.SpinnerName != "" {
		t.Errorf("expected spinner name cleared after landing, got %q", frame.SpinnerName)
	}
}

func TestSelectedClearsAfterResultTimeout(t *testing.T) {
	snap := testSnapshot(4)
	params := testParams()
	params.ResultTimeout = 7 * time.Second
	c, clock := newTestController(t, params, snap)

	c.Enqueue(Job{Prize: snap.Prizes()[2]})
	frame := c.Tick(clock.Advance(params.SpinDuration))
	if frame.Selected == nil {
		t.Fatal("expected selected prize after landing")
	}

	frame = c.Tick(clock.Advance(3 * time.Second))
	if frame.Selected == nil {
		t.Error("selected prize dismissed before timeout")
	}
	frame = c.Tick(clock.Advance(5 * time.Second))
	if frame.Selected != nil {
		t.Error("selected prize not dismissed after timeout")
	}
}

func TestDismissResultClearsImmediately(t *testing.T) {
	snap := testSnapshot(4)
	c, clock := newTestController(t, testParams(), snap)

	c.Enqueue(Job{Prize: snap.Prizes()[0]})
	c.Tick(clock.Advance(16 * time.Second))
	c.DismissResult()
	if frame := c.Frame(); frame.Selected != nil {
		t.Error("expected selected prize cleared by dismiss")
	}
}

func TestSnapshotSwapDeferredWhileSpinning(t *testing.T) {
	snap := testSnapshot(4)
	c, clock := newTestController(t, testParams(), snap)

	c.Enqueue(Job{Prize: snap.Prizes()[1]})

	refreshed := testSnapshot(6)
	c.SetSnapshot(refreshed)
	if got := c.Snapshot(); got != snap {
		t.Fatal("snapshot swapped mid-spin")
	}

	c.Tick(clock.Advance(16 * time.Second))
	if got := c.Snapshot(); got != refreshed {
		t.Fatal("deferred snapshot not applied after landing")
	}
}

func TestSnapshotSwapRebasesPosition(t *testing.T) {
	snap := testSnapshot(4)
	c, clock := newTestController(t, testParams(), snap)

	// drift deep into the strip, then shrink the catalog
	for i := 0; i < 100; i++ {
		c.Tick(clock.Advance(16 * time.Millisecond))
	}
	small := testSnapshot(2)
	c.SetSnapshot(small)

	frame := c.Frame()
	oneSet := 2 * 100.0
	if frame.Position > 0 || frame.Position < -oneSet {
		t.Errorf("position %v outside one period of new content", frame.Position)
	}
	if frame.Copies != testParams().MinCopies {
		t.Errorf("expected copies reset to %d, got %d", testParams().MinCopies, frame.Copies)
	}
}

func TestEmptySnapshotNeverSpins(t *testing.T) {
	c, clock := newTestController(t, testParams(), catalog.NewSnapshot(nil))

	c.Enqueue(Job{Prize: catalog.Prize{ID: "x"}})
	frame := c.Tick(clock.Advance(time.Second))
	if frame.Spinning {
		t.Error("expected no spin with an empty catalog")
	}
	if frame.Position != 0 {
		t.Errorf("expected position held at 0, got %v", frame.Position)
	}
}

func TestIdleReplenishGrowsCopies(t *testing.T) {
	snap := testSnapshot(2) // oneSet = 200px, small enough to out-drift
	params := testParams()
	params.MinCopies = 3
	params.ReplenishThreshold = 2
	params.ReplenishCount = 2
	c, clock := newTestController(t, params, snap)

	before := c.Frame().Copies
	// viewport 400 > (3-2)*200 immediately, so first tick replenishes
	c.Tick(clock.Advance(16 * time.Millisecond))
	if after := c.Frame().Copies; after <= before {
		t.Errorf("expected copies to grow past %d, got %d", before, after)
	}
}
