// Package apperr holds sentinel errors shared across the engine.
package apperr

import "errors"

var (
	ErrNotFound = errors.New("not found")
	// ErrCorpusUnreadable is the only condition that aborts an audit.
	ErrCorpusUnreadable = errors.New("corpus root missing or unreadable")
	ErrNoMapping        = errors.New("no mapping")
	// ErrGateFailed signals a completed audit whose gates did not pass.
	ErrGateFailed = errors.New("audit gate failed")
)
