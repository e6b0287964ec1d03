package lifecycle

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/noriskclient/launcherd/internal/launch/process"
	"github.com/noriskclient/launcherd/internal/profile/models"
	v1 "github.com/noriskclient/launcherd/pkg/api/v1"
)

// Preparer readies a profile for launch and returns the command to run.
// It must return promptly once ctx is cancelled.
type Preparer interface {
	Prepare(ctx context.Context, profile *models.Profile, r *Reporter) (*process.Spec, error)
}

// PreparerFunc adapts a function to Preparer.
type PreparerFunc func(ctx context.Context, profile *models.Profile, r *Reporter) (*process.Spec, error)

func (f PreparerFunc) Prepare(ctx context.Context, profile *models.Profile, r *Reporter) (*process.Spec, error) {
	return f(ctx, profile, r)
}

const defaultMainClass = "net.minecraft.client.main.Main"

// CommandPreparer builds a java command line from the profile. Installing
// the game files is left to whatever populated the game directory.
type CommandPreparer struct {
	JavaPath string
	GameRoot string
}

func (p *CommandPreparer) Prepare(ctx context.Context, profile *models.Profile, r *Reporter) (*process.Spec, error) {
	gameDir := profile.GameDir
	if gameDir == "" {
		gameDir = filepath.Join(p.GameRoot, profile.ID)
	}

	r.Progress(v1.EventTypeLaunchingMinecraft, "Preparing game directory", 0)
	if err := os.MkdirAll(gameDir, 0o755); err != nil {
		return nil, fmt.Errorf("create game directory: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	java := profile.JavaPath
	if java == "" {
		java = p.JavaPath
	}
	mainClass := profile.MainClass
	if mainClass == "" {
		mainClass = defaultMainClass
	}

	args := make([]string, 0, len(profile.JVMArgs)+len(profile.GameArgs)+5)
	args = append(args, profile.JVMArgs...)
	args = append(args, mainClass, "--version", profile.GameVersion, "--gameDir", gameDir)
	args = append(args, profile.GameArgs...)

	r.Progress(v1.EventTypeLaunchingMinecraft, "Game directory ready", 50)

	return &process.Spec{
		Path: java,
		Args: args,
		Dir:  gameDir,
		Env:  profile.EnvList(),
	}, nil
}
