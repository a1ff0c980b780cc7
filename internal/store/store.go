package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a catalog entry does not exist.
var ErrNotFound = errors.New("not found")

// Channel is a persisted channel catalog entry. Members are never persisted.
type Channel struct {
	Name      string
	CreatedAt time.Time
}

// ChannelStore handles channel catalog persistence.
type ChannelStore interface {
	// CreateChannel records a channel name. Recording an existing name is not an error.
	CreateChannel(ctx context.Context, name string) error

	// ListChannels returns every recorded channel name in creation order.
	ListChannels(ctx context.Context) ([]string, error)

	// GetChannel retrieves one catalog entry, or an error wrapping ErrNotFound.
	GetChannel(ctx context.Context, name string) (*Channel, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	ChannelStore

	// Close closes the underlying database connection.
	Close() error
}
