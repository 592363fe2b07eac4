package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

type Options struct {
	Port            string
	ServiceName     string
	RateLimitPerSec float64
	RateLimitBurst  int
	// Gatherer backs /metrics. Nil means the default Prometheus registry.
	Gatherer prometheus.Gatherer
	// Events serves the websocket feed. Nil disables the route.
	Events http.HandlerFunc
	Logger *slog.Logger
}

type Server struct {
	httpServer *http.Server
	handler    *Handler
	logger     *slog.Logger
}

func NewServer(allocator Allocator, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	handler := NewHandler(allocator, opts.ServiceName)

	httpServer := &http.Server{
		Addr:         ":" + opts.Port,
		Handler:      NewRouter(handler, opts),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		handler:    handler,
		logger:     opts.Logger,
	}
}

func NewRouter(handler *Handler, opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()

	r.Use(RecoveryMiddleware(logger))
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger))
	r.Use(TracingMiddleware(opts.ServiceName))
	r.Use(CORSMiddleware)

	r.Get("/health", handler.HealthCheck)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/parking-lot", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(RateLimitMiddleware(rate.Limit(opts.RateLimitPerSec), opts.RateLimitBurst))

			r.Post("/park", handler.ParkVehicle)
			r.Post("/unpark", handler.UnparkVehicle)
			r.Post("/transfer", handler.TransferVehicle)
			r.Post("/close", handler.CloseLot)
			r.Get("/vehicles/{plate}", handler.GetVehicleInfo)
			r.Get("/status", handler.GetStatus)
			r.Get("/receipts", handler.ListReceipts)
			r.Get("/receipts/{id}", handler.GetReceipt)
		})

		if opts.Events != nil {
			r.Get("/events", opts.Events)
		}
	})

	return r
}

func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) GetAddress() string {
	return fmt.Sprintf("http://localhost%s", s.httpServer.Addr)
}
