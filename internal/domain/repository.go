package domain

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("not found")

type UserRepository interface {
	GetByUID(ctx context.Context, uid string) (*User, error)
	Create(ctx context.Context, user *User) error
}

type ThresholdRepository interface {
	Create(ctx context.Context, threshold *Threshold) error
	// ListByOwner returns the owner's thresholds ordered by creation time,
	// newest first.
	ListByOwner(ctx context.Context, ownerUID string) ([]Threshold, error)
	// ListAllEnabledGroupedByOwner returns a snapshot of every threshold
	// with Enabled=true at call time, keyed by owner UID.
	ListAllEnabledGroupedByOwner(ctx context.Context) (map[string][]Threshold, error)
	// Disable flips Enabled to false. Disabling an already-disabled
	// threshold is a no-op success; a missing threshold is ErrNotFound.
	Disable(ctx context.Context, ownerUID string, thresholdID uint) error
	Delete(ctx context.Context, ownerUID string, thresholdID uint) error
}
