package testutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"

	"github.com/ZebulonRouseFrantzich/jrelaunch/internal/paths"
	"github.com/ZebulonRouseFrantzich/jrelaunch/internal/testutil"
)

func TestSetupTestEnv(t *testing.T) {
	home := testutil.SetupTestEnv(t)

	if got := os.Getenv(paths.HomeEnv); got != home {
		t.Errorf("%s = %q, want %q", paths.HomeEnv, got, home)
	}
	if info, err := os.Stat(home); err != nil || !info.IsDir() {
		t.Errorf("home dir not created: %v", err)
	}

	p, err := paths.Resolve("demo", paths.Options{})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if p.Root != filepath.Join(home, "demo") {
		t.Errorf("Root = %q, want under %q", p.Root, home)
	}
}

func TestWriteZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.zip")
	entries := testutil.RuntimeEntries("jre")
	testutil.WriteZip(t, path, entries)

	reader, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer reader.Close()

	if len(reader.File) != len(entries) {
		t.Fatalf("entries = %d, want %d", len(reader.File), len(entries))
	}
	for i, f := range reader.File {
		if f.Name != entries[i].Name {
			t.Errorf("entry %d = %q, want %q", i, f.Name, entries[i].Name)
		}
	}

	files := testutil.FilesOf(entries)
	if files["bin/java"] == "" {
		t.Error("FilesOf should strip the top-level segment")
	}
}
