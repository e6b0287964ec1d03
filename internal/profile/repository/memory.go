package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noriskclient/launcherd/internal/profile/models"
)

// MemoryRepository provides in-memory profile storage operations
type MemoryRepository struct {
	profiles map[string]*models.Profile
	mu       sync.RWMutex
}

// Ensure MemoryRepository implements Repository interface
var _ Repository = (*MemoryRepository)(nil)

// NewMemoryRepository creates a new in-memory profile repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		profiles: make(map[string]*models.Profile),
	}
}

// Close is a no-op for in-memory repository
func (r *MemoryRepository) Close() error {
	return nil
}

// Create stores a new profile, assigning an id if it has none.
func (r *MemoryRepository) Create(ctx context.Context, profile *models.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if profile.ID == "" {
		profile.ID = uuid.New().String()
	}
	if _, exists := r.profiles[profile.ID]; exists {
		return fmt.Errorf("profile already exists: %s", profile.ID)
	}
	now := time.Now().UTC()
	profile.CreatedAt = now
	profile.UpdatedAt = now

	cp := *profile
	r.profiles[profile.ID] = &cp
	return nil
}

// Get retrieves a profile by ID
func (r *MemoryRepository) Get(ctx context.Context, id string) (*models.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	profile, ok := r.profiles[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	cp := *profile
	return &cp, nil
}

// Update replaces an existing profile
func (r *MemoryRepository) Update(ctx context.Context, profile *models.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.profiles[profile.ID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, profile.ID)
	}
	profile.CreatedAt = existing.CreatedAt
	profile.UpdatedAt = time.Now().UTC()

	cp := *profile
	r.profiles[profile.ID] = &cp
	return nil
}

// Delete deletes a profile by ID
func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.profiles[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(r.profiles, id)
	return nil
}

// List returns all profiles ordered by name
func (r *MemoryRepository) List(ctx context.Context) ([]*models.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*models.Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		cp := *p
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}
