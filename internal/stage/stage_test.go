package stage

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/ZebulonRouseFrantzich/jrelaunch/internal/paths"
)

func TestResolveTruthTable(t *testing.T) {
	tests := []struct {
		archive bool
		dir     bool
		want    Stage
	}{
		{archive: false, dir: false, want: AcquireRuntime},
		{archive: false, dir: true, want: AcquireOrLaunchApplication},
		{archive: true, dir: false, want: VerifyRuntimeArchive},
		{archive: true, dir: true, want: VerifyExtractedRuntime},
	}

	for _, tt := range tests {
		for _, pkg := range []bool{false, true} {
			name := fmt.Sprintf("archive=%v/dir=%v/pkg=%v", tt.archive, tt.dir, pkg)
			t.Run(name, func(t *testing.T) {
				if got := Resolve(tt.archive, tt.dir, pkg); got != tt.want {
					t.Errorf("Resolve() = %v, want %v", got, tt.want)
				}
			})
		}
	}
}

func TestStageString(t *testing.T) {
	tests := map[Stage]string{
		AcquireRuntime:             "AcquireRuntime",
		VerifyRuntimeArchive:       "VerifyRuntimeArchive",
		VerifyExtractedRuntime:     "VerifyExtractedRuntime",
		AcquireOrLaunchApplication: "AcquireOrLaunchApplication",
		Stable:                     "Stable",
		Stage(99):                  "Unknown",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("Stage(%d).String() = %q, want %q", int(s), got, want)
		}
	}
}

func layout(t *testing.T) *paths.Paths {
	t.Helper()
	p, err := paths.Resolve("demo", paths.Options{Root: t.TempDir()})
	if err != nil {
		t.Fatalf("paths.Resolve() error = %v", err)
	}
	return p
}

func TestObserve(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		p := layout(t)
		obs := Observe(p)
		if obs != (Observation{}) {
			t.Errorf("Observe() = %+v, want all absent", obs)
		}
		if obs.Stage() != AcquireRuntime {
			t.Errorf("Stage() = %v, want AcquireRuntime", obs.Stage())
		}
	})

	t.Run("all_present", func(t *testing.T) {
		p := layout(t)
		if err := os.MkdirAll(p.RuntimeDir, 0o755); err != nil {
			t.Fatal(err)
		}
		for _, f := range []string{p.RuntimeArchive, p.ApplicationPackage} {
			if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
				t.Fatal(err)
			}
		}
		obs := Observe(p)
		want := Observation{RuntimeArchive: true, RuntimeDir: true, ApplicationPackage: true}
		if obs != want {
			t.Errorf("Observe() = %+v, want %+v", obs, want)
		}
		if obs.Stage() != VerifyExtractedRuntime {
			t.Errorf("Stage() = %v, want VerifyExtractedRuntime", obs.Stage())
		}
	})

	t.Run("wrong_kinds_count_as_absent", func(t *testing.T) {
		p := layout(t)
		if err := os.MkdirAll(p.RuntimeArchive, 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.MkdirAll(filepath.Dir(p.RuntimeDir), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p.RuntimeDir, []byte("not a dir"), 0o644); err != nil {
			t.Fatal(err)
		}
		if obs := Observe(p); obs != (Observation{}) {
			t.Errorf("Observe() = %+v, want all absent", obs)
		}
	})
}
