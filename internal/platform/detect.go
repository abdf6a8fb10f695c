package platform

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v4/host"
)

// RealDetector implements Detector using actual platform detection.
type RealDetector struct{}

// NewDetector creates a new platform detector.
func NewDetector() Detector {
	return &RealDetector{}
}

// Detect classifies the host. The OS comes from runtime.GOOS and the
// architecture is the kernel's native one as reported by gopsutil, so a
// 32-bit build running on 64-bit Windows still selects the 64-bit runtime.
//
// If gopsutil cannot answer, GOARCH is used instead (graceful fallback).
// A cancelled context is a hard failure.
func (d *RealDetector) Detect(ctx context.Context) (*Descriptor, error) {
	arch, err := host.KernelArch()
	if ctx.Err() != nil {
		return nil, fmt.Errorf("platform detection cancelled: %w", ctx.Err())
	}
	if err != nil || strings.TrimSpace(arch) == "" {
		arch = runtime.GOARCH
	}

	family, err := Classify(runtime.GOOS, arch)
	if err != nil {
		return nil, fmt.Errorf("platform detection failed: %w", err)
	}

	return &Descriptor{
		Family: family,
		OS:     runtime.GOOS,
		Arch:   normalizeArch(arch),
	}, nil
}

// Static is a Detector that always returns the same descriptor.
type Static struct {
	Descriptor Descriptor
}

// Detect returns a copy of the fixed descriptor.
func (s Static) Detect(ctx context.Context) (*Descriptor, error) {
	d := s.Descriptor
	return &d, nil
}
