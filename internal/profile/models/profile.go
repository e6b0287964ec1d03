// Package models holds the profile records launches are started from.
package models

import (
	"fmt"
	"time"
)

// Loader is the mod loader a profile runs with.
type Loader string

const (
	LoaderVanilla  Loader = "vanilla"
	LoaderFabric   Loader = "fabric"
	LoaderQuilt    Loader = "quilt"
	LoaderForge    Loader = "forge"
	LoaderNeoForge Loader = "neoforge"
)

// IsValid returns true for a supported loader.
func (l Loader) IsValid() bool {
	switch l {
	case LoaderVanilla, LoaderFabric, LoaderQuilt, LoaderForge, LoaderNeoForge:
		return true
	}
	return false
}

// Profile is a saved game configuration.
type Profile struct {
	ID            string            `json:"id" db:"id"`
	Name          string            `json:"name" db:"name"`
	GameVersion   string            `json:"game_version" db:"game_version"`
	Loader        Loader            `json:"loader" db:"loader"`
	LoaderVersion string            `json:"loader_version,omitempty" db:"loader_version"`
	GameDir       string            `json:"game_dir,omitempty" db:"game_dir"`
	JavaPath      string            `json:"java_path,omitempty" db:"java_path"`
	MainClass     string            `json:"main_class,omitempty" db:"main_class"`
	JVMArgs       []string          `json:"jvm_args,omitempty" db:"-"`
	GameArgs      []string          `json:"game_args,omitempty" db:"-"`
	Env           map[string]string `json:"env,omitempty" db:"-"`
	CreatedAt     time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at" db:"updated_at"`
}

// Validate checks the fields required to launch the profile.
func (p *Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.GameVersion == "" {
		return fmt.Errorf("game_version is required")
	}
	if p.Loader == "" {
		p.Loader = LoaderVanilla
	}
	if !p.Loader.IsValid() {
		return fmt.Errorf("unsupported loader %q", p.Loader)
	}
	return nil
}

// EnvList returns the profile environment as KEY=VALUE pairs.
func (p *Profile) EnvList() []string {
	out := make([]string, 0, len(p.Env))
	for k, v := range p.Env {
		out = append(out, k+"="+v)
	}
	return out
}
