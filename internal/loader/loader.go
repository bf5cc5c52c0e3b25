// Package loader reads the corpus and parses every selected document on a
// bounded worker pool.
package loader

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/skillgate/internal/apperr"
	"github.com/starford/skillgate/internal/models"
	"github.com/starford/skillgate/internal/parser"
	"github.com/starford/skillgate/internal/storage"
	"github.com/starford/skillgate/internal/tokens"
)

// DefaultWorkers bounds the parse pool when the caller passes zero.
const DefaultWorkers = 8

// Loader parses corpus documents.
type Loader struct {
	store     storage.Provider
	estimator tokens.Estimator
	workers   int
	logger    *slog.Logger
}

// New creates a Loader. workers < 1 falls back to DefaultWorkers.
func New(store storage.Provider, est tokens.Estimator, workers int, logger *slog.Logger) *Loader {
	if est == nil {
		est = tokens.Default
	}
	if workers < 1 {
		workers = DefaultWorkers
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{store: store, estimator: est, workers: workers, logger: logger}
}

// Load lists and parses every selected document. The result is sorted by
// path. Any listing or read failure aborts the whole load with
// apperr.ErrCorpusUnreadable; a partial corpus is never returned.
func (l *Loader) Load(ctx context.Context) ([]*models.Document, error) {
	start := time.Now()

	metas, err := l.store.List()
	if err != nil {
		return nil, fmt.Errorf("loader: %w: %w", apperr.ErrCorpusUnreadable, err)
	}

	// Each worker writes only its own index; no locking is needed.
	docs := make([]*models.Document, len(metas))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)
	for i, m := range metas {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			data, err := l.store.Read(m.Path)
			if err != nil {
				return fmt.Errorf("loader: %w: %w", apperr.ErrCorpusUnreadable, err)
			}
			doc := parser.Parse(m.Path, data, l.estimator)
			if !doc.Header.Present {
				l.logger.Debug("loader: document without header", slog.String("path", m.Path))
			}
			docs[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	l.logger.Info("loader: corpus parsed",
		slog.Int("documents", len(docs)),
		slog.Int("workers", l.workers),
		slog.Duration("elapsed", time.Since(start)))
	return docs, nil
}

// LoadOne reads and parses a single document. Paths outside the selection
// or naming anything but a regular file are not found.
func (l *Loader) LoadOne(path string) (*models.Document, error) {
	if !l.store.Selected(path) || !l.store.IsFile(path) {
		return nil, fmt.Errorf("loader: %s: %w", path, apperr.ErrNotFound)
	}
	data, err := l.store.Read(path)
	if err != nil {
		return nil, fmt.Errorf("loader: %w: %w", apperr.ErrCorpusUnreadable, err)
	}
	return parser.Parse(path, data, l.estimator), nil
}
