// Package mockapi is an in-memory stand-in for the cinema reservation API.
// It serves the endpoints the client consumes, with the same JSON shapes, so
// the client can be developed and tested without the real backend.
package mockapi

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/crypto/bcrypt"

	"cinema-booking-cli/model"
)

const (
	defaultTokenTTL = 24 * time.Hour
	shutdownTimeout = 5 * time.Second
)

type Options struct {
	Secret     string
	TokenTTL   time.Duration
	BcryptCost int
	Logger     *slog.Logger
	Now        func() time.Time
	// Rooms replaces the default seeded rooms.
	Rooms []model.Room
	// SkipSeed starts with no rooms and no users.
	SkipSeed bool
}

type Server struct {
	echo     *echo.Echo
	data     *data
	secret   []byte
	tokenTTL time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

func New(opts Options) (*Server, error) {
	if opts.Secret == "" {
		return nil, errors.New("mockapi: secret is required")
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = defaultTokenTTL
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Server{
		data:     newData(opts.BcryptCost),
		secret:   []byte(opts.Secret),
		tokenTTL: opts.TokenTTL,
		logger:   opts.Logger,
		now:      opts.Now,
	}
	if !opts.SkipSeed {
		if err := seed(s.data, opts.Rooms); err != nil {
			return nil, err
		}
	}
	s.echo = s.routes()
	return s, nil
}

// Handler exposes the router, e.g. for httptest.NewServer.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) routes() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.Debug("request", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency)
			return nil
		},
	}))

	api := e.Group("/api")
	api.POST("/auth/login", s.login)
	api.POST("/auth/register", s.register)
	api.GET("/rooms", s.listRooms)
	api.GET("/rooms/:id", s.getRoom)
	api.GET("/reservations", s.listReservations)
	api.POST("/reservations", s.createReservation, s.requireUser)
	api.DELETE("/reservations/:id", s.deleteReservation, s.requireUser)
	return e
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("mock api listening", "addr", addr)
		errCh <- s.echo.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("mock api shutting down")
		return s.echo.Shutdown(shutdownCtx)
	}
}
