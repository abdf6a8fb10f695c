// Package stage derives the next provisioning action from what exists on
// disk. Nothing about the current stage is ever persisted: it is
// recomputed from a fresh observation before every step.
package stage

import (
	"os"

	"github.com/ZebulonRouseFrantzich/jrelaunch/internal/paths"
)

// Stage is the next provisioning action.
type Stage int

const (
	// AcquireRuntime downloads the runtime archive.
	AcquireRuntime Stage = iota
	// VerifyRuntimeArchive checks the archive digest, then extracts it.
	VerifyRuntimeArchive
	// VerifyExtractedRuntime checks the extracted tree, then removes the
	// archive to mark the runtime as finished.
	VerifyExtractedRuntime
	// AcquireOrLaunchApplication downloads, verifies or launches the
	// application package.
	AcquireOrLaunchApplication
	// Stable is the terminal state once the application has been started.
	// Resolve never returns it: nothing on disk records a launch.
	Stable
)

func (s Stage) String() string {
	switch s {
	case AcquireRuntime:
		return "AcquireRuntime"
	case VerifyRuntimeArchive:
		return "VerifyRuntimeArchive"
	case VerifyExtractedRuntime:
		return "VerifyExtractedRuntime"
	case AcquireOrLaunchApplication:
		return "AcquireOrLaunchApplication"
	case Stable:
		return "Stable"
	default:
		return "Unknown"
	}
}

// Resolve maps what exists on disk to the next stage. The archive is the
// only "runtime not finished" signal: once it is gone and the runtime
// directory exists, the runtime counts as provisioned. The application
// package does not influence the runtime stages; it is inspected by the
// AcquireOrLaunchApplication stage itself.
func Resolve(archive, dir, _ bool) Stage {
	switch {
	case !archive && !dir:
		return AcquireRuntime
	case !archive && dir:
		return AcquireOrLaunchApplication
	case archive && !dir:
		return VerifyRuntimeArchive
	default:
		return VerifyExtractedRuntime
	}
}

// Observation is one snapshot of the provisioning paths.
type Observation struct {
	RuntimeArchive     bool // regular file
	RuntimeDir         bool // directory
	ApplicationPackage bool // regular file
}

// Observe checks the three provisioning paths. Anything of the wrong kind
// (a directory where a file is expected, and so on) counts as absent.
func Observe(p *paths.Paths) Observation {
	return Observation{
		RuntimeArchive:     isRegular(p.RuntimeArchive),
		RuntimeDir:         isDir(p.RuntimeDir),
		ApplicationPackage: isRegular(p.ApplicationPackage),
	}
}

// Stage resolves the observation.
func (o Observation) Stage() Stage {
	return Resolve(o.RuntimeArchive, o.RuntimeDir, o.ApplicationPackage)
}

func isRegular(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
