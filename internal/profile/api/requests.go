// Package api provides HTTP handlers for profile management.
package api

import (
	"time"

	"github.com/noriskclient/launcherd/internal/profile/models"
)

// CreateProfileRequest for creating a profile
type CreateProfileRequest struct {
	Name          string            `json:"name" binding:"required"`
	GameVersion   string            `json:"game_version" binding:"required"`
	Loader        models.Loader     `json:"loader"`
	LoaderVersion string            `json:"loader_version"`
	GameDir       string            `json:"game_dir"`
	JavaPath      string            `json:"java_path"`
	MainClass     string            `json:"main_class"`
	JVMArgs       []string          `json:"jvm_args,omitempty"`
	GameArgs      []string          `json:"game_args,omitempty"`
	Env           map[string]string `json:"env,omitempty"`
}

// UpdateProfileRequest for updating a profile
type UpdateProfileRequest struct {
	Name          *string           `json:"name,omitempty"`
	GameVersion   *string           `json:"game_version,omitempty"`
	Loader        *models.Loader    `json:"loader,omitempty"`
	LoaderVersion *string           `json:"loader_version,omitempty"`
	GameDir       *string           `json:"game_dir,omitempty"`
	JavaPath      *string           `json:"java_path,omitempty"`
	MainClass     *string           `json:"main_class,omitempty"`
	JVMArgs       []string          `json:"jvm_args,omitempty"`
	GameArgs      []string          `json:"game_args,omitempty"`
	Env           map[string]string `json:"env,omitempty"`
}

// ProfileResponse represents a profile in API responses
type ProfileResponse struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	GameVersion   string            `json:"game_version"`
	Loader        models.Loader     `json:"loader"`
	LoaderVersion string            `json:"loader_version,omitempty"`
	GameDir       string            `json:"game_dir,omitempty"`
	JavaPath      string            `json:"java_path,omitempty"`
	MainClass     string            `json:"main_class,omitempty"`
	JVMArgs       []string          `json:"jvm_args"`
	GameArgs      []string          `json:"game_args"`
	Env           map[string]string `json:"env,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// ProfilesListResponse represents a list of profiles
type ProfilesListResponse struct {
	Profiles []ProfileResponse `json:"profiles"`
	Total    int               `json:"total"`
}

func profileToResponse(p *models.Profile) ProfileResponse {
	jvm := p.JVMArgs
	if jvm == nil {
		jvm = []string{}
	}
	game := p.GameArgs
	if game == nil {
		game = []string{}
	}
	return ProfileResponse{
		ID:            p.ID,
		Name:          p.Name,
		GameVersion:   p.GameVersion,
		Loader:        p.Loader,
		LoaderVersion: p.LoaderVersion,
		GameDir:       p.GameDir,
		JavaPath:      p.JavaPath,
		MainClass:     p.MainClass,
		JVMArgs:       jvm,
		GameArgs:      game,
		Env:           p.Env,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}
