package repository

import (
	"context"

	"github.com/patteeraL/movra/services/currency-service/internal/model"
)

// SnapshotStore defines the persistence boundary for daily rate snapshots.
// Implementations enforce uniqueness of (base, date) at the storage level.
type SnapshotStore interface {
	// FindByBaseAndDate returns the snapshot for base on date.
	// Returns nil, nil if not found.
	FindByBaseAndDate(ctx context.Context, base, date string) (*model.RateSnapshot, error)

	// Insert persists a new snapshot.
	// Returns ErrDuplicateSnapshot if (base, date) already exists.
	Insert(ctx context.Context, snapshot *model.RateSnapshot) (*model.RateSnapshot, error)

	// FindLatest returns the most recent snapshot by date across all bases.
	// Returns nil, nil if the store is empty.
	FindLatest(ctx context.Context) (*model.RateSnapshot, error)

	// Health checks if the store is reachable
	Health(ctx context.Context) error
}

// ErrDuplicateSnapshot is returned when another writer already stored (Base, Date)
type ErrDuplicateSnapshot struct {
	Base string
	Date string
}

func (e ErrDuplicateSnapshot) Error() string {
	return "snapshot already exists: " + e.Base + " " + e.Date
}
