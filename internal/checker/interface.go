package checker

import (
	"context"

	"cookiestatus/pkg/domain"
)

//go:generate mockgen -package mockchecker -source=interface.go -destination=mock/mockchecker.go *
type Checker interface {
	// Check inspects the cookie files in dir. Every failure is reported through
	// the returned status; a check never errors.
	Check(ctx context.Context, dir string) domain.CookieStatus
	// Merge combines the per-service files in dir into the combined file.
	Merge(ctx context.Context, dir string, opts MergeOptions) (*MergeResult, error)
}
