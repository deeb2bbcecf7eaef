package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/infinity-clubs/roulette-display/events"
	"github.com/infinity-clubs/roulette-display/pkg/display"
	"github.com/rs/zerolog"
)

// StreamHandler serves the live display channel over SSE and WebSocket.
type StreamHandler struct {
	app             *App
	logger          zerolog.Logger
	heartbeatPeriod time.Duration
	upgrader        websocket.Upgrader
}

// NewStreamHandler creates a stream handler.
func NewStreamHandler(app *App) *StreamHandler {
	heartbeat := app.config.Display.HeartbeatPeriod
	if heartbeat <= 0 {
		heartbeat = 30 * time.Second
	}
	return &StreamHandler{
		app:             app,
		logger:          app.logger.With().Str("handler", "stream").Logger(),
		heartbeatPeriod: heartbeat,
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// Stream opens an SSE connection and streams display events.
// Route: GET /api/display/{club}/stream
func (h *StreamHandler) Stream(c *gin.Context) {
	d, err := h.app.hub.Display(c.Request.Context(), GetClubID(c))
	if err != nil {
		HandleAppError(c, err)
		return
	}

	// Setup SSE headers
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
	c.Writer.WriteHeader(http.StatusOK)

	sender := &sseSender{writer: c.Writer}
	h.streamEvents(c.Request.Context(), d, sender, nil)
}

// StreamWebSocket opens a WebSocket connection and streams display events.
// Route: GET /api/display/{club}/stream/ws
func (h *StreamHandler) StreamWebSocket(c *gin.Context) {
	d, err := h.app.hub.Display(c.Request.Context(), GetClubID(c))
	if err != nil {
		HandleAppError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to upgrade to WebSocket")
		return
	}
	defer conn.Close() //nolint:errcheck

	writeDeadline := 10 * time.Second
	conn.SetWriteDeadline(time.Now().Add(writeDeadline)) //nolint:errcheck

	done := make(chan struct{})

	// Detect connection close
	go func() {
		defer close(done)
		conn.SetReadDeadline(time.Now().Add(10 * time.Minute)) //nolint:errcheck
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
					h.logger.Warn().Err(err).Msg("WebSocket connection closed unexpectedly (EOF)")
				} else {
					h.logger.Warn().Err(err).Msg("WebSocket connection closed unexpectedly")
				}
			} else {
				h.logger.Debug().Err(err).Msg("WebSocket closed normally")
			}
		}
	}()

	// Send ping to keep connection alive
	pingTicker := time.NewTicker(30 * time.Second)
	go func() {
		defer pingTicker.Stop()
		for {
			select {
			case <-done:
				return
			case <-pingTicker.C:
				deadline := time.Now().Add(5 * time.Second)
				if err := conn.WriteControl(websocket.PingMessage, []byte{}, deadline); err != nil {
					h.logger.Debug().Err(err).Msg("Failed to send ping")
					return
				}
			}
		}
	}()

	sender := &wsSender{
		conn:          conn,
		done:          done,
		logger:        h.logger,
		writeDeadline: writeDeadline,
	}
	h.streamEvents(c.Request.Context(), d, sender, done)
}

// streamEvents handles the common streaming logic for SSE and WebSocket.
// The connected event carries the full current state so a client can
// render immediately; after that, frames arrive on every tick.
func (h *StreamHandler) streamEvents(ctx context.Context, d *display.Display, sender messageSender, done <-chan struct{}) {
	updates, cancel := d.Subscribe(ctx)
	defer cancel()

	frame := d.Frame()
	if err := sender.Send(&events.Event{
		Type:      events.EventConnected,
		Timestamp: time.Now().UnixMilli(),
		Frame:     &frame,
		Feed:      d.FeedEntries(),
	}); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to send connected event, stopping stream")
		return
	}

	heartbeat := time.NewTicker(h.heartbeatPeriod)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			h.logger.Debug().Msg("WebSocket connection closed, stopping stream")
			return
		case <-heartbeat.C:
			if err := sender.Send(&events.Event{
				Type:      events.EventHeartbeat,
				Timestamp: time.Now().UnixMilli(),
			}); err != nil {
				h.logger.Warn().Err(err).Msg("Failed to send heartbeat, stopping stream")
				return
			}
		case event, ok := <-updates:
			if !ok {
				return
			}
			if err := sender.Send(&event); err != nil {
				h.logger.Warn().Err(err).Str("event_type", event.Type).Msg("Failed to send event, stopping stream")
				return
			}
		}
	}
}

// messageSender interface for sending events (SSE or WebSocket).
type messageSender interface {
	Send(*events.Event) error
}

// sseSender sends events via SSE.
type sseSender struct {
	writer http.ResponseWriter
}

func (s *sseSender) Send(event *events.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = s.writer.Write([]byte("data: " + string(payload) + "\n\n"))
	if err != nil {
		return err
	}
	s.writer.(http.Flusher).Flush()
	return nil
}

// wsSender sends events via WebSocket.
type wsSender struct {
	conn          *websocket.Conn
	done          <-chan struct{}
	logger        zerolog.Logger
	writeDeadline time.Duration
}

func (s *wsSender) Send(event *events.Event) error {
	// Check if connection is already closed
	select {
	case <-s.done:
		s.logger.Debug().Str("event_type", event.Type).Msg("Connection already closed, skipping send")
		return io.EOF
	default:
	}

	// Set write deadline before each write
	deadline := time.Now().Add(s.writeDeadline)
	if err := s.conn.SetWriteDeadline(deadline); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to set write deadline")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error().Err(err).Str("event_type", event.Type).Msg("Failed to marshal event")
		return err
	}

	if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			s.logger.Warn().
				Err(err).
				Str("event_type", event.Type).
				Int("payload_size", len(payload)).
				Msg("WebSocket WriteMessage failed: connection closed (EOF)")
		} else if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
			s.logger.Warn().
				Err(err).
				Str("event_type", event.Type).
				Int("payload_size", len(payload)).
				Msg("WebSocket WriteMessage failed: unexpected close error")
		} else {
			s.logger.Warn().
				Err(err).
				Str("event_type", event.Type).
				Int("payload_size", len(payload)).
				Msg("WebSocket WriteMessage failed")
		}
		return err
	}

	return nil
}
