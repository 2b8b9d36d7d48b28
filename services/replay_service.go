package services

import "context"

// ReplayGuard remembers notification payloads that were already applied.
type ReplayGuard interface {
	// Claim returns false when key was claimed before and not released.
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}
