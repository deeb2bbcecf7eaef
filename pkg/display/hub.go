package display

import (
	"context"
	"sync"
	"time"

	"github.com/infinity-clubs/roulette-display/catalog"
	"github.com/infinity-clubs/roulette-display/errors"
	"github.com/infinity-clubs/roulette-display/events"
	"github.com/infinity-clubs/roulette-display/feed"
	"github.com/infinity-clubs/roulette-display/pkg/providers"
	"github.com/infinity-clubs/roulette-display/reel"
	"github.com/rs/zerolog"
)

// Options configures the hub.
type Options struct {
	Prizes        providers.PrizeProvider
	WinLog        providers.WinLogProvider // optional
	Normalizer    *events.Normalizer
	Params        reel.Params
	FrameInterval time.Duration
	FeedSeedLimit int
	Logger        zerolog.Logger
}

// Hub owns one Display per club, created lazily on first access. Spins
// arriving from Kafka or HTTP are normalized once and handed to the
// club's reel queue.
type Hub struct {
	mu       sync.Mutex
	displays map[string]*Display

	prizes        providers.PrizeProvider
	winLog        providers.WinLogProvider
	normalizer    *events.Normalizer
	params        reel.Params
	frameInterval time.Duration
	feedSeedLimit int
	logger        zerolog.Logger

	runCtx context.Context
	stop   context.CancelFunc
}

// NewHub creates a hub.
func NewHub(opts Options) *Hub {
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = 50 * time.Millisecond
	}
	if opts.FeedSeedLimit <= 0 {
		opts.FeedSeedLimit = feed.Capacity
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		displays:      make(map[string]*Display),
		prizes:        opts.Prizes,
		winLog:        opts.WinLog,
		normalizer:    opts.Normalizer,
		params:        opts.Params,
		frameInterval: opts.FrameInterval,
		feedSeedLimit: opts.FeedSeedLimit,
		logger:        opts.Logger.With().Str("component", "display_hub").Logger(),
		runCtx:        ctx,
		stop:          cancel,
	}
}

// Display returns the club's display, creating it on first access. The
// catalog is fetched and the feed seeded from the win log before the
// frame loop starts.
func (h *Hub) Display(ctx context.Context, clubID string) (*Display, error) {
	h.mu.Lock()
	if d, ok := h.displays[clubID]; ok {
		h.mu.Unlock()
		return d, nil
	}
	h.mu.Unlock()

	snapshot, err := h.loadSnapshot(ctx, clubID)
	if err != nil {
		return nil, err
	}

	winFeed := feed.New()
	h.seedFeed(ctx, clubID, winFeed)

	h.mu.Lock()
	defer h.mu.Unlock()
	// another caller may have won the race while we were loading
	if d, ok := h.displays[clubID]; ok {
		return d, nil
	}

	ctrl := reel.NewController(h.params, snapshot, h.logger.With().Str("club_id", clubID).Logger())
	d := newDisplay(h.runCtx, clubID, ctrl, winFeed, h.frameInterval, h.logger)
	h.displays[clubID] = d

	h.logger.Info().
		Str("club_id", clubID).
		Int("prizes", snapshot.Len()).
		Msg("Display created")
	return d, nil
}

func (h *Hub) loadSnapshot(ctx context.Context, clubID string) (*catalog.Snapshot, error) {
	prizes, err := h.prizes.RoulettePrizes(ctx, clubID)
	if err != nil {
		return nil, err
	}
	if len(prizes) == 0 {
		return nil, errors.New(errors.ErrCatalogUnavailable, "club has no active roulette prizes")
	}
	return catalog.NewSnapshot(prizes), nil
}

// seedFeed fills a fresh feed from the persisted win history. Failure is
// non-fatal; the display just starts with an empty ticker.
func (h *Hub) seedFeed(ctx context.Context, clubID string, winFeed *feed.Feed) {
	if h.winLog == nil {
		return
	}
	records, err := h.winLog.RecentWins(ctx, clubID, h.feedSeedLimit)
	if err != nil {
		h.logger.Warn().Err(err).Str("club_id", clubID).Msg("Failed to seed win feed")
		return
	}
	texts := make([]string, 0, len(records))
	for _, r := range records {
		if r.Text != "" {
			texts = append(texts, r.Text)
			continue
		}
		name := r.PlayerName
		if name == "" {
			name = feed.GuestName
		}
		texts = append(texts, name+" won "+r.PrizeName)
	}
	winFeed.Replace(texts)
}

// HandleSpin normalizes a spin payload and enqueues it on the club's
// reel. A spin_started event fires immediately; spin_completed fires
// when the reel lands.
func (h *Hub) HandleSpin(ctx context.Context, clubID string, payload events.SpinPayload) error {
	d, err := h.Display(ctx, clubID)
	if err != nil {
		return err
	}

	job, err := h.normalizer.Normalize(ctx, clubID, payload)
	if err != nil {
		return errors.Wrap(err, errors.ErrSpinRejected, "invalid spin payload")
	}

	accepted := d.ctrl.Enqueue(reel.Job{
		Prize:       job.Prize,
		SpinnerName: job.SpinnerLabel,
		OnComplete: func(selected catalog.Prize) {
			h.completeSpin(d, clubID, job, selected)
		},
	})
	if !accepted {
		return errors.New(errors.ErrSpinRejected, "spin queue is full")
	}

	d.bcast.Send(events.Event{
		Type:      events.EventSpinStarted,
		Timestamp: time.Now().UnixMilli(),
		Prize:     &job.Prize,
	})
	return nil
}

// completeSpin applies the feed update and persists the win after the
// reel lands.
func (h *Hub) completeSpin(d *Display, clubID string, job events.SpinJob, selected catalog.Prize) {
	if job.ReplaceFeed != nil {
		d.feed.Replace(job.ReplaceFeed)
	} else {
		d.feed.Add(job.DisplayName, selected.Name)
	}

	d.bcast.Send(events.Event{
		Type:      events.EventSpinCompleted,
		Timestamp: time.Now().UnixMilli(),
		Prize:     &selected,
		Feed:      d.feed.Entries(),
	})

	if h.winLog != nil {
		record := providers.WinRecord{
			ClubID:     clubID,
			PlayerName: job.DisplayName,
			PrizeName:  selected.Name,
			Text:       job.DisplayName + " won " + selected.Name,
			WonAt:      time.Now(),
		}
		// persist off the frame loop; a lost row only shortens history
		go func() {
			ctx, cancel := context.WithTimeout(h.runCtx, 5*time.Second)
			defer cancel()
			if err := h.winLog.RecordWin(ctx, record); err != nil {
				h.logger.Warn().Err(err).Str("club_id", clubID).Msg("Failed to persist win")
			}
		}()
	}
}

// DismissResult clears the club's winner overlay ahead of its timeout.
// A club with no display yet has nothing to dismiss.
func (h *Hub) DismissResult(ctx context.Context, clubID string) {
	h.mu.Lock()
	d, ok := h.displays[clubID]
	h.mu.Unlock()
	if !ok {
		return
	}
	d.DismissResult()
}

// Reload refetches the club's catalog and installs it on the display.
// The swap is deferred while a spin is in flight.
func (h *Hub) Reload(ctx context.Context, clubID string) error {
	h.mu.Lock()
	d, ok := h.displays[clubID]
	h.mu.Unlock()
	if !ok {
		// nothing rendered yet, first access will fetch fresh anyway
		return nil
	}

	snapshot, err := h.loadSnapshot(ctx, clubID)
	if err != nil {
		return err
	}
	d.SetSnapshot(snapshot)

	h.logger.Info().
		Str("club_id", clubID).
		Int("prizes", snapshot.Len()).
		Msg("Catalog reloaded")
	return nil
}

// Stop ends every display's frame loop.
func (h *Hub) Stop() {
	h.stop()
	h.mu.Lock()
	defer h.mu.Unlock()
	for clubID, d := range h.displays {
		d.Stop()
		delete(h.displays, clubID)
	}
	h.logger.Info().Msg("Display hub stopped")
}
