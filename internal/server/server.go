package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mall-parking/internal/logging"
)

type Server struct {
	httpServer *http.Server
	handler    *Handler
}

func NewServer(addr, serviceName string, handler *Handler) *Server {
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      NewRouter(handler, serviceName),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		handler:    handler,
	}
}

func NewRouter(handler *Handler, serviceName string) http.Handler {
	r := chi.NewRouter()

	r.Use(RecoveryMiddleware)
	r.Use(RequestIDMiddleware)
	r.Use(TracingMiddleware(serviceName))
	r.Use(LoggingMiddleware)
	r.Use(MetricsMiddleware)
	r.Use(CORSMiddleware)

	r.Get("/health", handler.HealthCheck)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Route("/slots", func(r chi.Router) {
			r.Get("/", handler.ListSlots)
			r.Get("/dashboard-counts", handler.DashboardCounts)
			r.Post("/seed", handler.SeedSlots)
			r.Put("/{number}/status", handler.UpdateSlotStatus)
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/checkin", handler.CheckIn)
			r.Put("/checkout/{id}", handler.CheckOut)
			r.Get("/search", handler.SearchSession)
		})

		r.Route("/pricing", func(r chi.Router) {
			r.Get("/", handler.GetPricing)
			r.Put("/hourly", handler.UpdateHourlyPricing)
			r.Put("/day-pass", handler.UpdateDayPassPricing)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/revenue/summary", handler.RevenueSummary)
			r.Get("/revenue/daily", handler.DailyRevenue)
			r.Get("/revenue/monthly", handler.MonthlyRevenue)
			r.Get("/utilization/peak-hours", handler.PeakHours)
			r.Get("/utilization/slot-usage", handler.SlotUsage)
		})
	})

	return r
}

func (s *Server) Start() error {
	logging.Info(context.Background(), "starting HTTP server", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info(ctx, "shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) GetAddress() string {
	return fmt.Sprintf("http://localhost%s", s.httpServer.Addr)
}
