// Package platform classifies the running machine into the small set of
// operating system and bitness combinations jrelaunch can provision a
// runtime for.
//
// The descriptor is computed once per run and parametrizes the runtime
// release index query and the name of the runtime executable. It is also
// injected into Lua configurations as a read-only table.
package platform

import (
	"context"
	"errors"
)

// ErrUnsupportedPlatform is returned when the host OS/architecture pair has
// no matching runtime release.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

// Family identifies a supported OS and bitness combination.
type Family int

const (
	// FamilyUnknown is the zero value and is never produced by Classify.
	FamilyUnknown Family = iota
	FamilyLinuxX64
	FamilyMacOSX64
	FamilyWindowsX64
	FamilyWindowsX86
)

// String returns the canonical family name ("linux-x64", "windows-x86", ...).
func (f Family) String() string {
	switch f {
	case FamilyLinuxX64:
		return "linux-x64"
	case FamilyMacOSX64:
		return "macos-x64"
	case FamilyWindowsX64:
		return "windows-x64"
	case FamilyWindowsX86:
		return "windows-x86"
	default:
		return "unknown"
	}
}

// Descriptor is the immutable classification of the host.
type Descriptor struct {
	Family Family
	OS     string // runtime.GOOS
	Arch   string // native kernel architecture, normalized
}

// Bitness returns 32 or 64.
func (d *Descriptor) Bitness() int {
	if d.Family == FamilyWindowsX86 {
		return 32
	}
	return 64
}

// OSName returns the OS token used by the runtime release index.
func (d *Descriptor) OSName() string {
	switch d.Family {
	case FamilyLinuxX64:
		return "linux"
	case FamilyMacOSX64:
		return "macos"
	case FamilyWindowsX64, FamilyWindowsX86:
		return "windows"
	default:
		return ""
	}
}

// IsWindows returns true for both Windows families.
func (d *Descriptor) IsWindows() bool {
	return d.Family == FamilyWindowsX64 || d.Family == FamilyWindowsX86
}

// IsLinux returns true if the platform is Linux.
func (d *Descriptor) IsLinux() bool {
	return d.Family == FamilyLinuxX64
}

// IsMacOS returns true if the platform is macOS.
func (d *Descriptor) IsMacOS() bool {
	return d.Family == FamilyMacOSX64
}

// JavaExecutable returns the file name of the runtime binary found under a
// runtime's bin directory.
func (d *Descriptor) JavaExecutable() string {
	if d.IsWindows() {
		return "java.exe"
	}
	return "java"
}

// Detector is the interface for platform detection.
type Detector interface {
	Detect(ctx context.Context) (*Descriptor, error)
}
