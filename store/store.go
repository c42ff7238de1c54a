package store

import (
	"context"
	"time"
)

// Store persists named starting boards and tracks which viewer sessions are
// live. Undo history never leaves the process.
type Store interface {
	// Patterns
	SavePattern(ctx context.Context, name string, data []byte) error
	LoadPattern(ctx context.Context, name string) (data []byte, ok bool, err error)
	ListPatterns(ctx context.Context) ([]string, error)
	DeletePattern(ctx context.Context, name string) (bool, error)
	WatchPatterns(ctx context.Context) (<-chan PatternEvent, error)

	// Session presence
	HeartbeatSession(ctx context.Context, sessionID string, ttl time.Duration) error
	ListSessions(ctx context.Context) ([]string, error)
}

// PatternEvent reports a pattern saved or deleted through the store.
type PatternEvent struct {
	Name    string
	Deleted bool
	Err     error
}
