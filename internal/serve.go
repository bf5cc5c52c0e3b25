package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/skillgate/internal/api"
	"github.com/starford/skillgate/internal/audit"
	"github.com/starford/skillgate/internal/sse"
)

// cachedAudit serves the most recent watch result to API handlers and
// falls back to a fresh audit before the first one completes.
type cachedAudit struct {
	*App

	mu     sync.RWMutex
	latest *audit.Result
}

var _ api.Service = (*cachedAudit)(nil)

func (c *cachedAudit) Audit(ctx context.Context) (*audit.Result, error) {
	c.mu.RLock()
	res := c.latest
	c.mu.RUnlock()
	if res != nil {
		return res, nil
	}
	return c.App.Audit(ctx)
}

func (c *cachedAudit) set(res *audit.Result) {
	c.mu.Lock()
	c.latest = res
	c.mu.Unlock()
}

func summary(res *audit.Result) sse.Summary {
	r := res.Report
	return sse.Summary{
		Passed:        r.Passed,
		BrokenLinks:   r.BrokenLinks,
		HubViolations: r.HubViolations,
		Orphans:       r.Orphans,
		Errors:        r.Errors(),
		Warnings:      r.Warnings(),
		CorpusDigest:  r.CorpusDigest,
		Timestamp:     r.Timestamp,
	}
}

// Handler builds the HTTP handler: health checks, the API under /api and
// the event stream at /api/events.
func (a *App) Handler(svc api.Service, broker *sse.Broker) http.Handler {
	auth := a.cfg.Serve.Auth

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	health := func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
	r.Get("/health/live", health)
	r.Get("/health/ready", health)

	var events http.Handler
	if broker != nil {
		events = broker
	}
	r.Mount("/api", api.NewRouter(svc, auth.AuthEnabled(), auth.Token, events))
	return r
}

// Serve runs the HTTP API until ctx is cancelled. The corpus is re-audited
// on every change; each result is cached for the API and pushed to event
// stream subscribers.
func (a *App) Serve(ctx context.Context) error {
	addr := a.cfg.Serve.Address()
	broker := sse.NewBroker()
	defer broker.Close()

	svc := &cachedAudit{App: a}
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           a.Handler(svc, broker),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.Watch(gCtx, func(res *audit.Result) error {
			svc.set(res)
			broker.PublishAudit(summary(res))
			return nil
		})
	})

	g.Go(func() error {
		a.logger.Info("Starting HTTP server", slog.String("address", addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		a.logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	a.logger.Info("Server stopped successfully")
	return nil
}
