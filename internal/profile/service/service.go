// Package service implements profile management and announces changes as profile_update events.
package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noriskclient/launcherd/internal/common/logger"
	"github.com/noriskclient/launcherd/internal/events"
	"github.com/noriskclient/launcherd/internal/profile/models"
	"github.com/noriskclient/launcherd/internal/profile/repository"
	v1 "github.com/noriskclient/launcherd/pkg/api/v1"
)

// Service provides profile business logic
type Service struct {
	repo    repository.Repository
	emitter *events.Emitter
	logger  *logger.Logger
}

// NewService creates a new profile service
func NewService(repo repository.Repository, emitter *events.Emitter, log *logger.Logger) *Service {
	return &Service{
		repo:    repo,
		emitter: emitter,
		logger:  log.WithComponent("profile-service"),
	}
}

// CreateRequest contains the data for creating a profile
type CreateRequest struct {
	Name          string
	GameVersion   string
	Loader        models.Loader
	LoaderVersion string
	GameDir       string
	JavaPath      string
	MainClass     string
	JVMArgs       []string
	GameArgs      []string
	Env           map[string]string
}

// UpdateRequest contains the data for updating a profile. Nil fields are left unchanged.
type UpdateRequest struct {
	Name          *string
	GameVersion   *string
	Loader        *models.Loader
	LoaderVersion *string
	GameDir       *string
	JavaPath      *string
	MainClass     *string
	JVMArgs       []string
	GameArgs      []string
	Env           map[string]string
}

// Create validates and stores a new profile
func (s *Service) Create(ctx context.Context, req *CreateRequest) (*models.Profile, error) {
	profile := &models.Profile{
		Name:          req.Name,
		GameVersion:   req.GameVersion,
		Loader:        req.Loader,
		LoaderVersion: req.LoaderVersion,
		GameDir:       req.GameDir,
		JavaPath:      req.JavaPath,
		MainClass:     req.MainClass,
		JVMArgs:       req.JVMArgs,
		GameArgs:      req.GameArgs,
		Env:           req.Env,
	}
	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}

	if err := s.repo.Create(ctx, profile); err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}

	s.logger.Info("profile created", zap.String("profile_id", profile.ID), zap.String("name", profile.Name))
	s.announce(ctx, profile.ID, "Profile created")
	return profile, nil
}

// Get retrieves a profile by ID
func (s *Service) Get(ctx context.Context, id string) (*models.Profile, error) {
	return s.repo.Get(ctx, id)
}

// Update applies the non-nil fields of req to the profile
func (s *Service) Update(ctx context.Context, id string, req *UpdateRequest) (*models.Profile, error) {
	profile, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		profile.Name = *req.Name
	}
	if req.GameVersion != nil {
		profile.GameVersion = *req.GameVersion
	}
	if req.Loader != nil {
		profile.Loader = *req.Loader
	}
	if req.LoaderVersion != nil {
		profile.LoaderVersion = *req.LoaderVersion
	}
	if req.GameDir != nil {
		profile.GameDir = *req.GameDir
	}
	if req.JavaPath != nil {
		profile.JavaPath = *req.JavaPath
	}
	if req.MainClass != nil {
		profile.MainClass = *req.MainClass
	}
	if req.JVMArgs != nil {
		profile.JVMArgs = req.JVMArgs
	}
	if req.GameArgs != nil {
		profile.GameArgs = req.GameArgs
	}
	if req.Env != nil {
		profile.Env = req.Env
	}

	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	if err := s.repo.Update(ctx, profile); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	s.announce(ctx, profile.ID, "Profile updated")
	return profile, nil
}

// Delete removes a profile
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("profile deleted", zap.String("profile_id", id))
	s.announce(ctx, id, "Profile deleted")
	return nil
}

// List returns all profiles
func (s *Service) List(ctx context.Context) ([]*models.Profile, error) {
	return s.repo.List(ctx)
}

func (s *Service) announce(ctx context.Context, profileID, message string) {
	if s.emitter == nil {
		return
	}
	_, err := s.emitter.Emit(ctx, v1.EventPayload{
		EventType: v1.EventTypeProfileUpdate,
		TargetID:  v1.StringPtr(profileID),
		Message:   message,
	})
	if err != nil {
		s.logger.Warn("failed to announce profile change", zap.String("profile_id", profileID), zap.Error(err))
	}
}
