package archive

import (
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
)

// TreeMismatchError lists every extracted file that is missing, unreadable
// or whose CRC32 differs from the archive's record. Paths are relative to
// the runtime directory, in slash form.
type TreeMismatchError struct {
	Paths []string
}

func (e *TreeMismatchError) Error() string {
	const shown = 5
	if len(e.Paths) <= shown {
		return fmt.Sprintf("extracted tree mismatch: %s", strings.Join(e.Paths, ", "))
	}
	return fmt.Sprintf("extracted tree mismatch: %s and %d more",
		strings.Join(e.Paths[:shown], ", "), len(e.Paths)-shown)
}

// VerifyTree re-reads the archive's central directory and checks that each
// file entry exists under dir, with the top-level segment stripped, and has
// the recorded CRC32. It never repairs; any mismatch invalidates the whole
// tree.
func VerifyTree(dir, archivePath string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer reader.Close()

	var mismatched []string
	for _, entry := range reader.File {
		if entry.FileInfo().IsDir() {
			continue
		}

		rel, err := stripTopLevel(entry.Name, false)
		if err != nil {
			return err
		}

		sum, err := fileCRC32(filepath.Join(dir, filepath.FromSlash(rel)))
		if err != nil || sum != entry.CRC32 {
			mismatched = append(mismatched, rel)
		}
	}

	if len(mismatched) > 0 {
		return &TreeMismatchError{Paths: mismatched}
	}
	return nil
}

// VerifyIntegrity reads every entry of the zip at path to EOF so the
// reader checks each entry's CRC32. The application package is a jar,
// which is a zip, so this detects truncated or corrupted downloads.
func VerifyIntegrity(path string) error {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("open %s as zip: %w", path, err)
	}
	defer reader.Close()

	if len(reader.File) == 0 {
		return fmt.Errorf("%s: archive has no entries", path)
	}

	for _, entry := range reader.File {
		if entry.FileInfo().IsDir() {
			continue
		}
		if err := drainEntry(entry); err != nil {
			return fmt.Errorf("%s: entry %s: %w", path, entry.Name, err)
		}
	}
	return nil
}

func drainEntry(entry *zip.File) error {
	rc, err := entry.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	if _, err := io.Copy(io.Discard, rc); err != nil {
		return err
	}
	return nil
}

func fileCRC32(path string) (uint32, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return 0, err
	}
	if !info.Mode().IsRegular() {
		return 0, errors.New("not a regular file")
	}

	hasher := crc32.NewIEEE()
	if _, err := io.Copy(hasher, file); err != nil {
		return 0, err
	}
	return hasher.Sum32(), nil
}
