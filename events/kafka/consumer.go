// Package kafka consumes spin commands from the backend and publishes
// spin requests originated over HTTP. One topic carries spins for every
// club; messages are keyed and filtered by club id.
package kafka

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// SpinEvent is one spin command read off the wire. Payload stays raw so
// the display layer controls its own decoding.
type SpinEvent struct {
	ClubID    string          `json:"clubId"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

const allClubsKey = "*"

// Subscription represents a client subscription for spin events.
type Subscription struct {
	ID      string
	ClubID  string
	Channel chan SpinEvent
}

// ClubFilter decides whether a club's spins should be processed. It
// returns true to process and false to skip.
type ClubFilter func(clubID string) bool

// Consumer reads spin commands from Kafka and routes them to per-club
// subscribers.
type Consumer struct {
	reader *kafka.Reader
	logger zerolog.Logger
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.RWMutex
	subscribers map[string][]*Subscription
	clubFilter  ClubFilter
}

// ConsumerConfig holds Kafka consumer configuration.
type ConsumerConfig struct {
	Brokers       []string
	Topic         string
	ConsumerGroup string
	Logger        zerolog.Logger
}

// NewConsumer creates a new Kafka consumer.
func NewConsumer(config ConsumerConfig) *Consumer {
	ctx, cancel := context.WithCancel(context.Background())

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        config.Brokers,
		Topic:          config.Topic,
		GroupID:        config.ConsumerGroup,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		CommitInterval: time.Second,
		StartOffset:    kafka.LastOffset,
	})

	return &Consumer{
		reader:      reader,
		logger:      config.Logger,
		ctx:         ctx,
		cancel:      cancel,
		subscribers: make(map[string][]*Subscription),
	}
}

// Start begins consuming messages.
func (c *Consumer) Start() error {
	c.wg.Add(1)
	go c.consume()
	c.logger.Info().Msg("Kafka consumer started")
	return nil
}

// Stop gracefully stops the consumer.
func (c *Consumer) Stop() error {
	c.logger.Info().Msg("Stopping Kafka consumer...")
	c.cancel()
	c.wg.Wait()

	if err := c.reader.Close(); err != nil {
		c.logger.Error().Err(err).Msg("Error closing Kafka reader")
		return err
	}

	c.logger.Info().Msg("Kafka consumer stopped")
	return nil
}

// consume is the main consumer loop.
func (c *Consumer) consume() {
	defer c.wg.Done()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
			msg, err := c.reader.FetchMessage(c.ctx)
			if err != nil {
				if err == context.Canceled {
					return
				}
				c.logger.Error().Err(err).Msg("Error fetching message from Kafka")
				time.Sleep(time.Second)
				continue
			}

			if err := c.handleMessage(msg); err != nil {
				c.logger.Error().
					Err(err).
					Str("topic", msg.Topic).
					Int("partition", msg.Partition).
					Int64("offset", msg.Offset).
					Msg("Error handling message")
			}

			if err := c.reader.CommitMessages(c.ctx, msg); err != nil {
				c.logger.Error().Err(err).Msg("Error committing message")
			}
		}
	}
}

// handleMessage processes a single Kafka message.
func (c *Consumer) handleMessage(msg kafka.Message) error {
	var event SpinEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return err
	}
	if event.ClubID == "" {
		// producers key messages by club id
		event.ClubID = string(msg.Key)
	}

	c.mu.RLock()
	shouldProcess := c.clubFilter == nil || c.clubFilter(event.ClubID)
	c.mu.RUnlock()

	if !shouldProcess {
		c.logger.Debug().
			Str("club_id", event.ClubID).
			Msg("Skipping spin (not for this instance)")
		return nil
	}

	c.mu.RLock()
	c.deliverLocked(event.ClubID, event)
	c.deliverLocked(allClubsKey, event)
	c.mu.RUnlock()
	return nil
}

// deliverLocked fans the event out to one subscriber list. Callers hold
// the read lock.
func (c *Consumer) deliverLocked(key string, event SpinEvent) {
	subs, exists := c.subscribers[key]
	if !exists {
		return
	}
	for _, sub := range subs {
		select {
		case sub.Channel <- event:
		default:
			c.logger.Warn().
				Str("sub_id", sub.ID).
				Str("club_id", event.ClubID).
				Msg("Subscriber channel full, dropping event")
		}
	}
}

// SetClubFilter sets a filter to skip spins for clubs this instance does
// not serve. A nil filter processes everything.
func (c *Consumer) SetClubFilter(filter ClubFilter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clubFilter = filter
	if filter != nil {
		c.logger.Info().Msg("Club filter set - will skip spins for other instances")
	} else {
		c.logger.Info().Msg("Club filter cleared - will process all clubs")
	}
}

// Subscribe subscribes to spin events for a specific club.
func (c *Consumer) Subscribe(clubID string) *Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()

	sub := &Subscription{
		ID:      uuid.New().String(),
		ClubID:  clubID,
		Channel: make(chan SpinEvent, 10),
	}

	if _, exists := c.subscribers[clubID]; !exists {
		c.subscribers[clubID] = make([]*Subscription, 0)
	}
	c.subscribers[clubID] = append(c.subscribers[clubID], sub)

	c.logger.Debug().
		Str("club_id", clubID).
		Str("sub_id", sub.ID).
		Msg("New subscription added")

	return sub
}

// SubscribeAll subscribes to spin events for every club.
func (c *Consumer) SubscribeAll() *Subscription {
	return c.Subscribe(allClubsKey)
}

// Unsubscribe removes a subscription.
func (c *Consumer) Unsubscribe(sub *Subscription) {
	c.UnsubscribeWithClubID(sub.ClubID, sub.ID)
}

// UnsubscribeWithClubID removes a subscription knowing the club id.
func (c *Consumer) UnsubscribeWithClubID(clubID string, subID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	subs, exists := c.subscribers[clubID]
	if !exists {
		return
	}

	newSubs := make([]*Subscription, 0, len(subs))
	for _, s := range subs {
		if s.ID == subID {
			close(s.Channel)
			continue
		}
		newSubs = append(newSubs, s)
	}

	if len(newSubs) == 0 {
		delete(c.subscribers, clubID)
	} else {
		c.subscribers[clubID] = newSubs
	}

	c.logger.Debug().
		Str("club_id", clubID).
		Str("sub_id", subID).
		Msg("Subscription removed")
}
