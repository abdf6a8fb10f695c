// Package paths derives the on-disk layout jrelaunch provisions into.
//
// The presence or absence of the three artifact paths is the only persisted
// state: there is no lock file and no manifest.
package paths

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// File names (never change these inline elsewhere)
const (
	RuntimeArchiveName     = "launcher-jre.zip"
	RuntimeDirName         = "launcher-jre"
	ApplicationPackageName = "Launcher.jar"
)

// HomeEnv overrides the per-OS base directory. The project name is still
// appended to it.
const HomeEnv = "JRELAUNCH_HOME"

// ErrInvalidProjectName is returned for names that would escape the base
// directory.
var ErrInvalidProjectName = errors.New("invalid project name")

// Paths is the provisioning layout for one project.
type Paths struct {
	Root               string
	RuntimeArchive     string
	RuntimeDir         string
	ApplicationPackage string
}

// Options controls root resolution.
type Options struct {
	// Root, when set, is used as-is and bypasses every convention.
	Root string
	// GOOS selects the convention; defaults to runtime.GOOS.
	GOOS string
}

// userHomeDir and userConfigDir are variables so tests can pin them.
var (
	userHomeDir   = os.UserHomeDir
	userConfigDir = os.UserConfigDir
)

// Resolve derives the layout for projectName.
func Resolve(projectName string, opts Options) (*Paths, error) {
	if err := validateProjectName(projectName); err != nil {
		return nil, err
	}

	root := opts.Root
	if root == "" {
		base, err := baseDir(opts.GOOS)
		if err != nil {
			return nil, err
		}
		root = filepath.Join(base, projectName)
	}

	root = filepath.Clean(root)
	return &Paths{
		Root:               root,
		RuntimeArchive:     filepath.Join(root, RuntimeArchiveName),
		RuntimeDir:         filepath.Join(root, RuntimeDirName),
		ApplicationPackage: filepath.Join(root, ApplicationPackageName),
	}, nil
}

// WithRuntimeDir returns a copy of p that uses dir as the runtime directory,
// for a pre-installed runtime outside the install root.
func (p Paths) WithRuntimeDir(dir string) *Paths {
	p.RuntimeDir = filepath.Clean(dir)
	return &p
}

// baseDir returns the directory the project directory lives in.
// Windows: %APPDATA%
// macOS: ~/minecraft
// Linux: ~/.minecraftlauncher
func baseDir(goos string) (string, error) {
	if env := os.Getenv(HomeEnv); env != "" {
		return env, nil
	}

	if goos == "" {
		goos = runtime.GOOS
	}

	switch goos {
	case "windows":
		dir, err := userConfigDir()
		if err != nil {
			return "", fmt.Errorf("resolve application data dir: %w", err)
		}
		return dir, nil
	case "darwin":
		home, err := userHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		return filepath.Join(home, "minecraft"), nil
	case "linux":
		home, err := userHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		return filepath.Join(home, ".minecraftlauncher"), nil
	default:
		return "", fmt.Errorf("no install directory convention for %s", goos)
	}
}

func validateProjectName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("%w: empty", ErrInvalidProjectName)
	}
	if trimmed == "." || trimmed == ".." || strings.ContainsAny(trimmed, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidProjectName, name)
	}
	return nil
}
