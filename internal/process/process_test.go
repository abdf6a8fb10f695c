package process

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func waitForFile(t *testing.T, path string) string {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		content, err := os.ReadFile(path)
		if err == nil && len(content) > 0 {
			return string(content)
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", path)
	return ""
}

func TestSpawn(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses /bin/sh")
	}

	tests := []struct {
		name     string
		detached bool
	}{
		{name: "attached", detached: false},
		{name: "detached", detached: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			pid, err := Spawn(Spec{
				Path:     "/bin/sh",
				Args:     []string{"-c", "pwd > out.txt"},
				Dir:      dir,
				Detached: tt.detached,
			})
			if err != nil {
				t.Fatalf("Spawn() error = %v", err)
			}
			if pid <= 0 {
				t.Errorf("pid = %d, want > 0", pid)
			}

			got := strings.TrimSpace(waitForFile(t, filepath.Join(dir, "out.txt")))
			resolved, err := filepath.EvalSymlinks(dir)
			if err != nil {
				t.Fatal(err)
			}
			if got != resolved && got != dir {
				t.Errorf("child ran in %q, want %q", got, dir)
			}
		})
	}
}

func TestSpawnErrors(t *testing.T) {
	if _, err := Spawn(Spec{}); err == nil {
		t.Error("expected error for empty path")
	}
	if _, err := Spawn(Spec{Path: filepath.Join(t.TempDir(), "does-not-exist")}); err == nil {
		t.Error("expected error for missing executable")
	}
}

func TestSysProcAttr(t *testing.T) {
	if sysProcAttr(false) != nil {
		t.Error("attached processes need no SysProcAttr")
	}
	if sysProcAttr(true) == nil {
		t.Error("detached processes need a SysProcAttr")
	}
}
