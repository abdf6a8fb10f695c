package bootstrap

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ZebulonRouseFrantzich/jrelaunch/internal/archive"
	"github.com/ZebulonRouseFrantzich/jrelaunch/internal/fetch"
	"github.com/ZebulonRouseFrantzich/jrelaunch/internal/jre"
	"github.com/ZebulonRouseFrantzich/jrelaunch/internal/paths"
	"github.com/ZebulonRouseFrantzich/jrelaunch/internal/testutil"
)

// runtimeZip returns the bytes of a small runtime archive.
func runtimeZip(t *testing.T, entries []testutil.ZipEntry) []byte {
	t.Helper()
	if entries == nil {
		entries = testutil.RuntimeEntries("jre8u292-full")
	}
	path := testutil.WriteZip(t, filepath.Join(t.TempDir(), "jre.zip"), entries)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func newLayout(t *testing.T) *paths.Paths {
	t.Helper()
	p, err := paths.Resolve("demo", paths.Options{Root: filepath.Join(t.TempDir(), "demo")})
	if err != nil {
		t.Fatalf("paths.Resolve() error = %v", err)
	}
	return p
}

// fakeProvider serves a fixed archive and records every call. Extraction
// and tree checks use the real archive package.
type fakeProvider struct {
	mu          sync.Mutex
	archive     []byte
	downloadErr error
	extractErr  error
	calls       []string
}

var _ jre.Provider = (*fakeProvider)(nil)

func (f *fakeProvider) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeProvider) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeProvider) count(call string) int {
	n := 0
	for _, c := range f.Calls() {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeProvider) FetchMetadata(context.Context) (*jre.ArtifactRef, error) {
	f.record("FetchMetadata")
	return &jre.ArtifactRef{Version: "8u292+10", DownloadURL: "https://example.invalid/jre.zip"}, nil
}

func (f *fakeProvider) DownloadArchive(_ context.Context, dest string) error {
	f.record("DownloadArchive")
	if f.downloadErr != nil {
		return f.downloadErr
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dest, f.archive, 0o644)
}

func (f *fakeProvider) VerifyArchive(_ context.Context, path string) error {
	f.record("VerifyArchive")
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if !bytes.Equal(data, f.archive) {
		return &jre.ChecksumMismatchError{Path: path, Expected: "good", Actual: "bad"}
	}
	return nil
}

func (f *fakeProvider) Extract(archivePath, runtimeDir string) error {
	f.record("Extract")
	if f.extractErr != nil {
		return f.extractErr
	}
	return archive.NewExtractor().Extract(archivePath, runtimeDir)
}

func (f *fakeProvider) VerifyExtracted(runtimeDir, archivePath string) error {
	f.record("VerifyExtracted")
	return archive.VerifyTree(runtimeDir, archivePath)
}

// fakeApp stands in for the application package.
type fakeApp struct {
	verifyFailures int
	remoteFailures int
	downloadErr    error
	runErr         error
	pid            int

	calls      []string
	runPackage string
	runRuntime string
}

func (f *fakeApp) Download(_ context.Context, dest string) error {
	f.calls = append(f.calls, "Download")
	if f.downloadErr != nil {
		return f.downloadErr
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dest, []byte("jar"), 0o644)
}

func (f *fakeApp) Verify(context.Context, string) error {
	f.calls = append(f.calls, "Verify")
	if f.remoteFailures > 0 {
		f.remoteFailures--
		return fmt.Errorf("fetch signature: %w", &fetch.RemoteLookupError{
			URL: "https://example.invalid/Launcher.jar.minisig",
			Err: &fetch.HTTPStatusError{Code: 503},
		})
	}
	if f.verifyFailures > 0 {
		f.verifyFailures--
		return errors.New("zip: checksum error")
	}
	return nil
}

func (f *fakeApp) Run(pkg, runtimeDir string) (int, error) {
	f.calls = append(f.calls, "Run")
	f.runPackage = pkg
	f.runRuntime = runtimeDir
	if f.runErr != nil {
		return 0, f.runErr
	}
	return f.pid, nil
}

// stepClock starts at Start and advances by Step on every call, so a run
// measured with it has a predictable duration.
type stepClock struct {
	Start time.Time
	Step  time.Duration
	calls int
}

// Now returns Start plus Step for every earlier call.
func (c *stepClock) Now() time.Time {
	t := c.Start.Add(time.Duration(c.calls) * c.Step)
	c.calls++
	return t
}
