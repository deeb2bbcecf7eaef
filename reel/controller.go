// Package reel owns the scroll position of one club's prize reel: the
// slow idle drift between spins, the eased travel to a server-declared
// winner, and the FIFO queue that serializes bursts of concurrent spins.
// All position writes flow through Tick, driven by an external frame
// loop, so the controller is deterministic under an injected clock.
package reel

import (
	"math"
	"sync"
	"time"

	"github.com/infinity-clubs/roulette-display/catalog"
	"github.com/rs/zerolog"
)

// frameUnit is the reference frame duration the idle speed is tuned to.
const frameUnit = 16 * time.Millisecond

// State is the controller's animation state.
type State int

const (
	StateIdle State = iota
	StateSpinning
)

// Job is one queued spin awaiting animation. OnComplete runs after the
// reel lands, outside the controller lock.
type Job struct {
	Prize       catalog.Prize
	SpinnerName string
	OnComplete  func(selected catalog.Prize)
}

type activeSpin struct {
	job      Job
	start    time.Time
	startPos float64
	endPos   float64
}

// Controller drives one club's reel. Exactly one of idle drift or an
// active spin owns the scroll position at any time; queued jobs wait
// their turn in strict arrival order.
type Controller struct {
	mu     sync.Mutex
	params Params
	logger zerolog.Logger
	now    func() time.Time

	snapshot        *catalog.Snapshot
	pendingSnapshot *catalog.Snapshot

	pos    float64
	copies int
	state  State
	last   time.Time

	spin  *activeSpin
	queue []Job

	selected      *catalog.Prize
	selectedUntil time.Time
	spinnerName   string
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock injects the time source, used by tests to drive the
// animation deterministically.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// NewController creates a controller over the given catalog snapshot.
func NewController(params Params, snapshot *catalog.Snapshot, logger zerolog.Logger, opts ...Option) *Controller {
	params.normalize()
	c := &Controller{
		params:   params,
		logger:   logger.With().Str("component", "reel").Logger(),
		now:      time.Now,
		snapshot: snapshot,
		copies:   params.MinCopies,
		state:    StateIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.last = c.now()
	return c
}

// oneSetWidth is the pixel width of one un-repeated catalog copy.
func (c *Controller) oneSetWidthLocked() float64 {
	return float64(c.snapshot.Len()) * c.params.ItemWidth
}

// Tick advances the animation to now and returns the resulting frame.
// Completion callbacks of finished spins run after the lock is released,
// and a finished spin immediately starts the next queued job within the
// same tick.
func (c *Controller) Tick(now time.Time) Frame {
	c.mu.Lock()
	dt := now.Sub(c.last)
	if dt < 0 {
		dt = 0
	}
	c.last = now

	var completed []Job

	switch c.state {
	case StateSpinning:
		completed = c.stepSpinLocked(now)
	case StateIdle:
		c.stepIdleLocked(now, dt)
	}

	frame := c.frameLocked()
	c.mu.Unlock()

	for _, job := range completed {
		if job.OnComplete != nil {
			job.OnComplete(job.Prize)
		}
	}
	return frame
}

func (c *Controller) stepSpinLocked(now time.Time) []Job {
	s := c.spin
	progress := float64(now.Sub(s.start)) / float64(c.params.SpinDuration)
	if progress < 0 {
		// a ticker timestamp queued before the enqueue can predate the
		// spin start; hold at startPos instead of easing backwards
		progress = 0
	}
	if progress < 1 {
		eased := 1 - math.Exp2(-c.params.EasingExponent*progress)
		c.pos = s.startPos + (s.endPos-s.startPos)*eased
		return nil
	}

	// snap exactly to the target; eased position carries float drift
	c.pos = s.endPos
	prize := s.job.Prize
	c.selected = &prize
	c.selectedUntil = now.Add(c.params.ResultTimeout)
	c.spinnerName = ""
	c.spin = nil
	c.state = StateIdle

	completed := []Job{s.job}

	if c.pendingSnapshot != nil {
		c.applySnapshotLocked(c.pendingSnapshot)
		c.pendingSnapshot = nil
	}

	// drain the queue within the same tick
	c.startNextLocked(now)
	return completed
}

func (c *Controller) stepIdleLocked(now time.Time, dt time.Duration) {
	if c.selected != nil && now.After(c.selectedUntil) {
		c.selected = nil
	}
	if c.snapshot.Len() == 0 {
		return
	}

	units := float64(dt) / float64(frameUnit)
	if units > c.params.MaxFrameUnits {
		units = c.params.MaxFrameUnits
	}
	c.pos -= c.params.IdleSpeed * units

	oneSet := c.oneSetWidthLocked()
	// a clamped stall can still overshoot several periods of a small
	// catalog in one tick, so correct until the offset is back in range
	for c.pos < -oneSet {
		c.pos += oneSet
	}

	// keep rendered content ahead of the visible window
	extent := -c.pos + c.params.ViewportWidth
	if extent > float64(c.copies-c.params.ReplenishThreshold)*oneSet {
		c.copies += c.params.ReplenishCount
	}
}

// Enqueue appends a spin job and starts it immediately when the reel is
// idle. Order is strict FIFO; jobs are never coalesced. With a queue cap
// configured, overflow drops the newest job.
func (c *Controller) Enqueue(job Job) bool {
	c.mu.Lock()
	if c.params.QueueCap > 0 && len(c.queue) >= c.params.QueueCap {
		c.mu.Unlock()
		c.logger.Warn().
			Str("prize_id", job.Prize.ID).
			Int("queue_cap", c.params.QueueCap).
			Msg("Spin queue full, dropping job")
		return false
	}
	c.queue = append(c.queue, job)
	c.startNextLocked(c.now())
	c.mu.Unlock()
	return true
}

// startNextLocked pops the head job and claims the reel if idle.
func (c *Controller) startNextLocked(now time.Time) {
	if c.state != StateIdle || len(c.queue) == 0 || c.snapshot.Len() == 0 {
		return
	}

	job := c.queue[0]
	c.queue = c.queue[1:]

	idx, ok := c.snapshot.FindIndex(job.Prize)
	if !ok {
		c.logger.Warn().
			Str("prize_id", job.Prize.ID).
			Int("slot_index", job.Prize.SlotIndex).
			Msg("Winning prize not found in catalog, landing on slot 0")
	}

	oneSet := c.oneSetWidthLocked()
	center := c.params.ViewportWidth/2 - c.params.ItemWidth/2 - c.params.PaddingLeft
	target := center - float64(idx)*c.params.ItemWidth

	// nearest repetition of the target at least one full lap behind the
	// current position, plus the configured extra laps
	k := math.Floor((c.pos-target)/oneSet) - 1
	end := target + k*oneSet - float64(c.params.ExtraRotations)*oneSet

	// grow copies up front so the whole travel is over rendered content;
	// idle replenishment is suspended during the spin
	if need := int(math.Ceil((-end+c.params.ViewportWidth)/oneSet)) + 1; need > c.copies {
		c.copies = need
	}

	c.spin = &activeSpin{
		job:      job,
		start:    now,
		startPos: c.pos,
		endPos:   end,
	}
	c.state = StateSpinning
	c.spinnerName = job.SpinnerName
	c.selected = nil

	c.logger.Debug().
		Str("prize_id", job.Prize.ID).
		Int("final_index", idx).
		Float64("start_pos", c.pos).
		Float64("end_pos", end).
		Int("queue_depth", len(c.queue)).
		Msg("Spin started")
}

// SetSnapshot installs a refreshed catalog. Content never changes
// mid-spin: while a spin is active the swap is deferred until it lands.
func (c *Controller) SetSnapshot(snapshot *catalog.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateSpinning {
		c.pendingSnapshot = snapshot
		return
	}
	c.applySnapshotLocked(snapshot)
}

func (c *Controller) applySnapshotLocked(snapshot *catalog.Snapshot) {
	c.snapshot = snapshot
	c.copies = c.params.MinCopies
	// rebase the offset into one period of the new content
	if oneSet := c.oneSetWidthLocked(); oneSet > 0 {
		c.pos = math.Mod(c.pos, oneSet)
		if c.pos > 0 {
			c.pos -= oneSet
		}
	} else {
		c.pos = 0
	}
}

// DismissResult clears the selected prize ahead of its timeout.
func (c *Controller) DismissResult() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = nil
}

// Snapshot returns the catalog currently rendered by the reel.
func (c *Controller) Snapshot() *catalog.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot
}

// Frame returns the current display state without advancing time.
func (c *Controller) Frame() Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frameLocked()
}

func (c *Controller) frameLocked() Frame {
	return Frame{
		Position:    c.pos,
		Copies:      c.copies,
		Spinning:    c.state == StateSpinning,
		SpinnerName: c.spinnerName,
		Selected:    c.selected,
		QueueDepth:  len(c.queue),
	}
}

// State returns the current animation state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}
