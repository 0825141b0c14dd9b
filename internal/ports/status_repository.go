package ports

import (
	"context"

	"github.com/bft-labs/morsebridge/internal/domain"
)

// StatusRepository persists the bridge status snapshot.
type StatusRepository interface {
	// Load returns the last saved status, or a zero Status and nil error
	// if none exists.
	Load(ctx context.Context) (domain.Status, error)

	// Save writes the status atomically.
	Save(ctx context.Context, status domain.Status) error
}
