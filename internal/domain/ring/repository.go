// internal/domain/ring/repository.go
package ring

import "context"

// Repository stores the ring log.
type Repository interface {
	Create(ctx context.Context, r *Ring) error
	ListRecent(ctx context.Context, limit int) ([]*Ring, error) // Newest first
}
