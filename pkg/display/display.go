// Package display ties one reel controller, win feed, and broadcaster
// together per club, and runs the frame loop that pushes live state to
// connected clients.
package display

import (
	"context"
	"time"

	"github.com/infinity-clubs/roulette-display/catalog"
	"github.com/infinity-clubs/roulette-display/events"
	"github.com/infinity-clubs/roulette-display/feed"
	"github.com/infinity-clubs/roulette-display/reel"
	"github.com/rs/zerolog"
)

// broadcastBuffer sizes each subscriber's event channel. At 50ms frames
// this is under a second of slack before frames get dropped.
const broadcastBuffer = 16

// Display is the live state of one club's roulette screen.
type Display struct {
	clubID string
	ctrl   *reel.Controller
	feed   *feed.Feed
	bcast  *events.Broadcaster
	logger zerolog.Logger
	cancel context.CancelFunc
}

func newDisplay(ctx context.Context, clubID string, ctrl *reel.Controller, winFeed *feed.Feed, frameInterval time.Duration, logger zerolog.Logger) *Display {
	runCtx, cancel := context.WithCancel(ctx)
	d := &Display{
		clubID: clubID,
		ctrl:   ctrl,
		feed:   winFeed,
		bcast:  events.NewBroadcaster(broadcastBuffer),
		logger: logger.With().Str("club_id", clubID).Logger(),
		cancel: cancel,
	}
	go d.run(runCtx, frameInterval)
	return d
}

// run is the frame loop. Every tick advances the animation and pushes
// the resulting frame to all subscribers.
func (d *Display) run(ctx context.Context, frameInterval time.Duration) {
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()
	defer d.bcast.Close()

	d.logger.Info().Dur("frame_interval", frameInterval).Msg("Display frame loop started")
	for {
		select {
		case <-ctx.Done():
			d.logger.Info().Msg("Display frame loop stopped")
			return
		case now := <-ticker.C:
			frame := d.ctrl.Tick(now)
			frame.FeedRevision = d.feed.Revision()
			d.bcast.Send(events.Event{
				Type:      events.EventFrame,
				Timestamp: now.UnixMilli(),
				Frame:     &frame,
			})
		}
	}
}

// Subscribe attaches a client to the live event channel.
func (d *Display) Subscribe(ctx context.Context) (<-chan events.Event, context.CancelFunc) {
	return d.bcast.Listen(ctx)
}

// Frame returns the current display state without advancing time.
func (d *Display) Frame() reel.Frame {
	frame := d.ctrl.Frame()
	frame.FeedRevision = d.feed.Revision()
	return frame
}

// FeedEntries returns the current win feed, newest first.
func (d *Display) FeedEntries() []feed.Entry {
	return d.feed.Entries()
}

// Prizes returns the catalog currently rendered by the reel.
func (d *Display) Prizes() []catalog.Prize {
	return d.ctrl.Snapshot().Prizes()
}

// SetSnapshot installs a refreshed catalog, deferred while spinning.
func (d *Display) SetSnapshot(snapshot *catalog.Snapshot) {
	d.ctrl.SetSnapshot(snapshot)
}

// DismissResult clears the selected prize ahead of its timeout.
func (d *Display) DismissResult() {
	d.ctrl.DismissResult()
}

// Subscribers returns the number of connected clients.
func (d *Display) Subscribers() int {
	return d.bcast.Subscribers()
}

// Stop ends the frame loop and disconnects all subscribers.
func (d *Display) Stop() {
	d.cancel()
}
