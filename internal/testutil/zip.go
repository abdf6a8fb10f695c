package testutil

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
)

// ZipEntry describes one entry of a test archive. Names ending in "/" are
// directories. A zero Mode falls back to 0644 for files and 0755 for
// directories.
type ZipEntry struct {
	Name    string
	Content string
	Mode    os.FileMode
	Store   bool // write uncompressed
}

// WriteZip creates a zip archive at path with entries in the given order.
func WriteZip(t *testing.T, path string, entries []ZipEntry) string {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create archive dir: %v", err)
	}

	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create archive: %v", err)
	}
	defer func() { _ = file.Close() }()

	writer := zip.NewWriter(file)
	for _, entry := range entries {
		header := &zip.FileHeader{Name: entry.Name, Method: zip.Deflate}
		if entry.Store {
			header.Method = zip.Store
		}

		mode := entry.Mode
		if strings.HasSuffix(entry.Name, "/") {
			if mode == 0 {
				mode = 0o755
			}
			header.SetMode(os.ModeDir | mode)
		} else {
			if mode == 0 {
				mode = 0o644
			}
			header.SetMode(mode)
		}

		w, err := writer.CreateHeader(header)
		if err != nil {
			t.Fatalf("failed to write header for %s: %v", entry.Name, err)
		}
		if entry.Content != "" {
			if _, err := w.Write([]byte(entry.Content)); err != nil {
				t.Fatalf("failed to write content for %s: %v", entry.Name, err)
			}
		}
	}

	if err := writer.Close(); err != nil {
		t.Fatalf("failed to finish archive: %v", err)
	}
	return path
}

// RuntimeEntries returns a small runtime-shaped archive with every entry
// under root/, including an executable bin/java.
func RuntimeEntries(root string) []ZipEntry {
	return []ZipEntry{
		{Name: root + "/"},
		{Name: root + "/bin/"},
		{Name: root + "/bin/java", Content: "#!/bin/sh\necho java\n", Mode: 0o755},
		{Name: root + "/bin/java.exe", Content: "MZ fake", Mode: 0o755},
		{Name: root + "/lib/"},
		{Name: root + "/lib/rt.jar", Content: "runtime classes"},
		{Name: root + "/lib/ext/jfxrt.jar", Content: "fx classes"},
		{Name: root + "/release", Content: "JAVA_VERSION=\"1.8.0_292\"\n"},
	}
}

// FilesOf returns the non-directory entries keyed by their path with the
// top-level segment removed.
func FilesOf(entries []ZipEntry) map[string]string {
	files := make(map[string]string)
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name, "/") {
			continue
		}
		if idx := strings.IndexByte(entry.Name, '/'); idx >= 0 {
			files[entry.Name[idx+1:]] = entry.Content
		}
	}
	return files
}

// SortedKeys returns the keys of m in order.
func SortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
