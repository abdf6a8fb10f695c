// Package archive extracts runtime zip archives and checks an extracted
// tree against the per-entry CRC32 values recorded in the archive.
//
// Every runtime archive wraps its content in one top-level directory
// ("jre8u292-full/bin/java", ...). That segment is always stripped, so the
// destination directory receives "bin/java" directly.
package archive

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/klauspost/compress/zip"
)

// ErrInvalidArchiveLayout is returned for an entry that cannot be mapped
// below the destination: a file with no component after the top-level
// segment, an absolute path, or a path that climbs out with "..".
var ErrInvalidArchiveLayout = errors.New("invalid archive layout")

// creatorUnix is the "version made by" host value for Unix in the zip
// central directory. Only those entries carry meaningful permission bits.
const creatorUnix = 3

// Extractor handles archive extraction
type Extractor struct{}

// NewExtractor creates a new extractor
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract unpacks archivePath into destDir with the top-level segment
// stripped from every entry. Directory entries are created, file entries
// are written with parent directories as needed and, on Unix hosts, get
// their stored permission bits back.
//
// On error destDir is left partially populated; VerifyTree detects that.
// The archive itself is never removed here.
func (e *Extractor) Extract(archivePath, destDir string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer reader.Close()

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("create dest dir: %w", err)
	}

	for _, entry := range reader.File {
		isDir := entry.FileInfo().IsDir()

		rel, err := stripTopLevel(entry.Name, isDir)
		if err != nil {
			return err
		}
		target := filepath.Join(destDir, filepath.FromSlash(rel))

		if isDir {
			if err := os.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("create directory %s: %w", target, err)
			}
			if err := applyMode(target, entry); err != nil {
				return err
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return fmt.Errorf("create parent dir for %s: %w", target, err)
		}
		if err := writeEntry(entry, target); err != nil {
			return err
		}
		if err := applyMode(target, entry); err != nil {
			return err
		}
	}

	return nil
}

func writeEntry(entry *zip.File, target string) error {
	src, err := entry.Open()
	if err != nil {
		return fmt.Errorf("open entry %s: %w", entry.Name, err)
	}
	defer src.Close()

	outFile, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("create file %s: %w", target, err)
	}

	if _, err := io.Copy(outFile, src); err != nil {
		outFile.Close()
		return fmt.Errorf("write file %s: %w", target, err)
	}

	if err := outFile.Close(); err != nil {
		return fmt.Errorf("close file %s: %w", target, err)
	}
	return nil
}

// applyMode re-applies stored Unix permission bits. Entries written by
// non-Unix tools and Windows hosts keep the defaults.
func applyMode(target string, entry *zip.File) error {
	if runtime.GOOS == "windows" || entry.CreatorVersion>>8 != creatorUnix {
		return nil
	}
	perm := entry.Mode().Perm()
	if perm == 0 {
		return nil
	}
	if err := os.Chmod(target, perm); err != nil {
		return fmt.Errorf("set permissions on %s: %w", target, err)
	}
	return nil
}

// stripTopLevel returns name without its first path segment, in slash
// form. The top-level directory entry itself maps to "." so it lands on the
// destination root; a file with nothing below the top level is invalid.
func stripTopLevel(name string, isDir bool) (string, error) {
	normalized := strings.ReplaceAll(name, `\`, "/")
	if strings.HasPrefix(normalized, "/") || hasVolume(normalized) {
		return "", fmt.Errorf("%w: absolute entry path %q", ErrInvalidArchiveLayout, name)
	}

	for _, segment := range strings.Split(strings.TrimSuffix(normalized, "/"), "/") {
		if segment == ".." {
			return "", fmt.Errorf("%w: entry %q escapes the destination", ErrInvalidArchiveLayout, name)
		}
	}

	cleaned := path.Clean(normalized)
	idx := strings.IndexByte(cleaned, '/')
	if idx < 0 || idx == len(cleaned)-1 {
		if isDir {
			return ".", nil
		}
		return "", fmt.Errorf("%w: entry %q has no path below the top-level directory", ErrInvalidArchiveLayout, name)
	}

	return cleaned[idx+1:], nil
}

// hasVolume reports a Windows drive prefix such as "C:".
func hasVolume(name string) bool {
	return len(name) >= 2 && name[1] == ':' &&
		((name[0] >= 'a' && name[0] <= 'z') || (name[0] >= 'A' && name[0] <= 'Z'))
}
