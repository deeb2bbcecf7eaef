// Package server exposes the display service over HTTP: the prize
// catalog and recent-wins endpoints, the live SSE/WebSocket stream, and
// the authenticated spin and reload operations.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/infinity-clubs/roulette-display/auth"
	"github.com/infinity-clubs/roulette-display/config"
	"github.com/infinity-clubs/roulette-display/events/kafka"
	"github.com/infinity-clubs/roulette-display/middleware"
	"github.com/infinity-clubs/roulette-display/pkg/display"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// App is the display service application.
type App struct {
	engine     *gin.Engine
	config     *config.Config
	logger     zerolog.Logger
	hub        *display.Hub
	producer   *kafka.Producer
	httpServer *http.Server
	onShutdown []func()

	displayHandler *DisplayHandler
	streamHandler  *StreamHandler
}

// Options holds server construction options.
type Options struct {
	Config *config.Config
	Logger zerolog.Logger
	Hub    *display.Hub
}

// Router is an alias for gin.Engine for convenience.
type Router = gin.Engine

// New creates the display service application.
func New(opts Options) *App {
	// Configure decimal.Decimal to marshal as JSON number instead of string
	// WARNING: This may cause precision loss for decimals with many digits when
	// unmarshaled by clients using IEEE 754 double-precision (e.g., JavaScript)
	decimal.MarshalJSONWithoutQuotes = true

	if opts.Config.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	app := &App{
		engine: gin.New(),
		config: opts.Config,
		logger: opts.Logger,
		hub:    opts.Hub,
	}

	app.displayHandler = NewDisplayHandler(app)
	app.streamHandler = NewStreamHandler(app)

	return app
}

// SetProducer wires the Kafka producer used to publish HTTP-originated
// spins. Without it spins are handled in-process.
func (a *App) SetProducer(producer *kafka.Producer) {
	a.producer = producer
}

// UseCommonMiddlewares adds the shared middleware chain.
func (a *App) UseCommonMiddlewares() {
	// Recovery middleware (must be first)
	a.engine.Use(middleware.Recovery(a.logger))

	// Trace ID middleware
	a.engine.Use(middleware.TraceID())

	// Logging middleware
	a.engine.Use(middleware.Logging(a.logger))

	// CORS middleware if enabled
	if a.config.Server.EnableCORS {
		a.engine.Use(middleware.CORS())
	}
}

// UseMiddleware adds a custom middleware.
func (a *App) UseMiddleware(m gin.HandlerFunc) {
	a.engine.Use(m)
}

// RegisterHealthCheck adds health check endpoints.
func (a *App) RegisterHealthCheck() {
	a.engine.GET("/health", a.healthCheck)
	a.engine.GET("/api/health", a.healthCheck)
}

func (a *App) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now(),
		"service":   a.config.Environment,
	})
}

// RegisterDisplayRoutes registers the display API.
//
// Routes registered:
//   - GET  /api/display/{club}/prizes       -> DisplayHandler.GetPrizes
//   - GET  /api/display/{club}/recent-wins  -> DisplayHandler.GetRecentWins
//   - GET  /api/display/{club}/stream       -> StreamHandler.Stream (SSE)
//   - GET  /api/display/{club}/stream/ws    -> StreamHandler.StreamWebSocket
//   - POST /api/display/{club}/spin         -> DisplayHandler.TriggerSpin (JWT)
//   - POST /api/display/{club}/reload       -> DisplayHandler.Reload (JWT)
//   - POST /api/display/{club}/dismiss      -> DisplayHandler.DismissResult (JWT)
func (a *App) RegisterDisplayRoutes() {
	public := a.engine.Group("/api/display/:club")
	public.Use(ClubContext())
	{
		public.GET("/prizes", a.displayHandler.GetPrizes)
		public.GET("/recent-wins", a.displayHandler.GetRecentWins)
		public.GET("/stream", a.streamHandler.Stream)
		public.GET("/stream/ws", a.streamHandler.StreamWebSocket)
	}

	protected := a.engine.Group("/api/display/:club")
	protected.Use(middleware.Timeout(10 * time.Second))
	protected.Use(auth.JWTMiddleware(a.config.JWT.Secret, a.logger))
	protected.Use(ClubContext())
	{
		protected.POST("/spin", a.displayHandler.TriggerSpin)
		protected.POST("/reload", a.displayHandler.Reload)
		protected.POST("/dismiss", a.displayHandler.DismissResult)
	}

	a.logger.Info().Msg("Display routes registered: /api/display/:club")
}

// Router returns the Gin engine for custom route registration.
func (a *App) Router() *gin.Engine {
	return a.engine
}

// Group creates a route group.
func (a *App) Group(path string, handlers ...gin.HandlerFunc) *gin.RouterGroup {
	return a.engine.Group(path, handlers...)
}

// AuthGroup creates a route group with JWT authentication.
func (a *App) AuthGroup(path string) *gin.RouterGroup {
	return a.engine.Group(path, auth.JWTMiddleware(a.config.JWT.Secret, a.logger))
}

// RegisterRoutes registers custom routes using a callback.
func (a *App) RegisterRoutes(fn func(*gin.Engine)) {
	fn(a.engine)
}

// OnShutdown registers a function to be called on shutdown.
func (a *App) OnShutdown(fn func()) {
	a.onShutdown = append(a.onShutdown, fn)
}

// Run starts the HTTP server and blocks until SIGINT/SIGTERM.
func (a *App) Run() error {
	a.startHTTPServer(nil)
	return a.waitForShutdown()
}

// RunWithContext starts the HTTP server and blocks until the context
// ends or the server fails.
func (a *App) RunWithContext(ctx context.Context) error {
	errChan := make(chan error, 1)
	a.startHTTPServer(errChan)

	select {
	case <-ctx.Done():
		return a.shutdown()
	case err := <-errChan:
		return err
	}
}

func (a *App) startHTTPServer(errChan chan error) {
	addr := fmt.Sprintf(":%d", a.config.Server.Port)

	a.httpServer = &http.Server{
		Addr:         addr,
		Handler:      a.engine,
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
		IdleTimeout:  a.config.Server.IdleTimeout,
	}

	go func() {
		a.logger.Info().
			Int("port", a.config.Server.Port).
			Str("environment", a.config.Environment).
			Msg("Starting HTTP server")

		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if errChan != nil {
				errChan <- err
				return
			}
			a.logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()
}

func (a *App) waitForShutdown() error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	return a.shutdown()
}

func (a *App) shutdown() error {
	a.logger.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, fn := range a.onShutdown {
		fn()
	}

	if a.hub != nil {
		a.hub.Stop()
	}

	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.logger.Error().Err(err).Msg("Error during server shutdown")
		return err
	}

	a.logger.Info().Msg("Server shutdown complete")
	return nil
}

// Config returns the application configuration.
func (a *App) Config() *config.Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() zerolog.Logger {
	return a.logger
}

// Hub returns the display hub.
func (a *App) Hub() *display.Hub {
	return a.hub
}
