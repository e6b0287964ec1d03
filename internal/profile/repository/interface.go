// Package repository stores profiles.
package repository

import (
	"context"
	"errors"

	"github.com/noriskclient/launcherd/internal/profile/models"
)

// ErrNotFound is returned when no profile has the requested id.
var ErrNotFound = errors.New("profile not found")

// Repository defines the interface for profile storage operations
type Repository interface {
	Create(ctx context.Context, profile *models.Profile) error
	Get(ctx context.Context, id string) (*models.Profile, error)
	Update(ctx context.Context, profile *models.Profile) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*models.Profile, error)

	// Close closes the repository (for database connections)
	Close() error
}
