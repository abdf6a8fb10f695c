// Package testutil provides utilities for testing jrelaunch in isolation.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ZebulonRouseFrantzich/jrelaunch/internal/paths"
)

// SetupTestEnv points the install base directory at a fresh temp dir so
// tests never touch a real installation. It returns that directory.
// Cleanup is handled by t.TempDir().
func SetupTestEnv(t *testing.T) string {
	t.Helper()

	home := filepath.Join(t.TempDir(), "home")
	if err := os.MkdirAll(home, 0o750); err != nil {
		t.Fatalf("failed to create test directory %s: %v", home, err)
	}

	t.Setenv(paths.HomeEnv, home)

	return home
}
