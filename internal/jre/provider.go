// Package jre provisions the Java runtime: it resolves release metadata,
// downloads and authenticates the runtime archive, extracts it and checks
// the extracted tree. It can also discover a suitable runtime that is
// already installed on the machine.
package jre

import (
	"context"
	"fmt"
)

// ArtifactRef is the resolved release metadata of one runtime archive.
type ArtifactRef struct {
	Version     string
	DownloadURL string
	SHA1        string // lowercase hex
}

// Provider is a source of runtime archives.
type Provider interface {
	// FetchMetadata resolves the download URL and digest for the configured
	// version and platform.
	FetchMetadata(ctx context.Context) (*ArtifactRef, error)

	// DownloadArchive writes the runtime archive to dest.
	DownloadArchive(ctx context.Context, dest string) error

	// VerifyArchive checks the archive at path against the trusted digest.
	// A mismatch is a *ChecksumMismatchError.
	VerifyArchive(ctx context.Context, path string) error

	// Extract unpacks archivePath into runtimeDir.
	Extract(archivePath, runtimeDir string) error

	// VerifyExtracted checks runtimeDir against archivePath.
	VerifyExtracted(runtimeDir, archivePath string) error
}

// ChecksumMismatchError reports an archive whose digest differs from the
// value published by the release index.
type ChecksumMismatchError struct {
	Path     string
	Expected string
	Actual   string
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch for %s:\nactual:   %s\nexpected: %s", e.Path, e.Actual, e.Expected)
}
