package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/ZebulonRouseFrantzich/jrelaunch/internal/archive"
	"github.com/ZebulonRouseFrantzich/jrelaunch/internal/fetch"
	"github.com/ZebulonRouseFrantzich/jrelaunch/internal/jre"
	"github.com/ZebulonRouseFrantzich/jrelaunch/internal/launcher"
	"github.com/ZebulonRouseFrantzich/jrelaunch/internal/logging"
	"github.com/ZebulonRouseFrantzich/jrelaunch/internal/paths"
	"github.com/ZebulonRouseFrantzich/jrelaunch/internal/progress"
	"github.com/ZebulonRouseFrantzich/jrelaunch/internal/stage"
)

// cleanRunIterations is the number of loop passes from an empty install
// directory to a launch: acquire, verify archive and extract, verify tree,
// download package, verify and run.
const cleanRunIterations = 5

// Runner executes the provisioning loop.
type Runner struct {
	Provider    jre.Provider
	Application launcher.Application
	Paths       *paths.Paths

	// PreinstalledRuntime, when set, is used as the runtime directory and
	// every runtime stage is skipped.
	PreinstalledRuntime string

	Reporter    progress.Reporter // defaults to progress.Nop()
	Logger      logging.Logger    // defaults to logging.Nop()
	MaxAttempts int               // zero means 5
	Clock       Clock             // defaults to RealClock
	NewRunID    func() string     // defaults to uuid.NewString
}

// Result describes a successful run.
type Result struct {
	RunID      string
	Stage      stage.Stage // stage.Stable after a launch, else the stage that failed
	Iterations int
	Retries    int
	PID        int
	Duration   time.Duration
}

// run is the per-invocation state of the loop.
type run struct {
	*Runner
	paths    *paths.Paths
	budget   *Budget
	logger   logging.Logger
	reporter progress.Reporter
	reached  float64
}

const defaultMaxAttempts = 5

// Run drives the loop until the application is started or a fatal error
// occurs. Fatal errors are also reported as a progress.Failed event.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if r.Provider == nil || r.Application == nil || r.Paths == nil {
		return nil, errors.New("bootstrap: Provider, Application and Paths are required")
	}

	clock := r.Clock
	if clock == nil {
		clock = RealClock{}
	}
	newRunID := r.NewRunID
	if newRunID == nil {
		newRunID = uuid.NewString
	}
	logger := r.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	reporter := r.Reporter
	if reporter == nil {
		reporter = progress.Nop()
	}
	attempts := r.MaxAttempts
	if attempts <= 0 {
		attempts = defaultMaxAttempts
	}

	result := &Result{RunID: newRunID()}
	state := &run{
		Runner:   r,
		paths:    r.Paths,
		budget:   NewBudget(attempts),
		logger:   logging.With(logger, "run_id", result.RunID),
		reporter: reporter,
	}
	if r.PreinstalledRuntime != "" {
		state.paths = r.layout()
		state.logger.Info("using pre-installed runtime", "dir", state.paths.RuntimeDir)
	}

	start := clock.Now()
	pid, err := state.loop(ctx, result)
	result.Retries = state.budget.Used()
	result.Duration = clock.Now().Sub(start)

	if err != nil {
		state.logger.Error("provisioning failed", "error", err, "iterations", result.Iterations, "retries", result.Retries)
		reporter.Report(progress.FailedEvent(state.reached, err))
		return result, err
	}

	result.PID = pid
	state.logger.Info("provisioning complete", "pid", pid, "iterations", result.Iterations, "retries", result.Retries, "duration", result.Duration)
	return result, nil
}

func (s *run) loop(ctx context.Context, result *Result) (int, error) {
	limit := (s.budget.Ceiling() + 1) * cleanRunIterations

	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if result.Iterations >= limit {
			return 0, fmt.Errorf("%w after %d iterations", ErrIterationLimit, result.Iterations)
		}
		result.Iterations++

		obs := s.observe(s.paths)
		current := obs.Stage()
		result.Stage = current
		s.logger.Debug("resolved stage", "stage", current.String(), "iteration", result.Iterations,
			"archive", obs.RuntimeArchive, "runtime_dir", obs.RuntimeDir, "package", obs.ApplicationPackage)

		var (
			pid  int
			done bool
			err  error
		)
		switch current {
		case stage.AcquireRuntime:
			err = s.acquireRuntime(ctx)
		case stage.VerifyRuntimeArchive:
			err = s.verifyRuntimeArchive(ctx)
		case stage.VerifyExtractedRuntime:
			err = s.verifyExtractedRuntime()
		case stage.AcquireOrLaunchApplication:
			pid, done, err = s.acquireOrLaunchApplication(ctx, obs.ApplicationPackage)
		}
		if err != nil {
			return 0, err
		}
		if done {
			result.Stage = stage.Stable
			return pid, nil
		}
	}
}

// Observe reports what the next loop pass would see, without acting.
func (r *Runner) Observe() stage.Observation {
	return r.observe(r.layout())
}

// layout is Paths with the pre-installed runtime substituted.
func (r *Runner) layout() *paths.Paths {
	if r.PreinstalledRuntime == "" {
		return r.Paths
	}
	return r.Paths.WithRuntimeDir(r.PreinstalledRuntime)
}

// observe ignores a stale archive when a pre-installed runtime is used, so
// the loop never verifies or deletes a runtime it does not own.
func (r *Runner) observe(layout *paths.Paths) stage.Observation {
	obs := stage.Observe(layout)
	if r.PreinstalledRuntime != "" {
		obs.RuntimeArchive = false
	}
	return obs
}

func (s *run) report(status progress.Status) {
	ev := progress.NewEvent(status)
	s.reached = ev.Fraction
	s.reporter.Report(ev)
}

// retry charges one attempt for a repairable failure. A nil return means
// the loop should resolve again.
func (s *run) retry(current stage.Stage, path string, cause error) error {
	s.logger.Warn("attempt failed", "stage", current.String(), "path", path, "error", cause,
		"attempt", s.budget.Used()+1, "max_attempts", s.budget.Ceiling())
	if err := s.budget.Spend(cause); err != nil {
		return &StageError{Stage: current, Path: path, Err: err}
	}
	return nil
}

func (s *run) acquireRuntime(ctx context.Context) error {
	s.report(progress.DownloadJre)

	if err := s.Provider.DownloadArchive(ctx, s.paths.RuntimeArchive); err != nil {
		return s.retry(stage.AcquireRuntime, s.paths.RuntimeArchive, err)
	}
	return nil
}

func (s *run) verifyRuntimeArchive(ctx context.Context) error {
	s.report(progress.CheckJreArchive)

	if err := s.Provider.VerifyArchive(ctx, s.paths.RuntimeArchive); err != nil {
		var mismatch *jre.ChecksumMismatchError
		if errors.As(err, &mismatch) {
			if rmErr := removeFile(s.paths.RuntimeArchive); rmErr != nil {
				return &StageError{Stage: stage.VerifyRuntimeArchive, Path: s.paths.RuntimeArchive, Err: rmErr}
			}
			s.logger.Info("deleted runtime archive with bad digest", "path", s.paths.RuntimeArchive)
		}
		// Lookup failures leave the archive for the next pass to check again.
		return s.retry(stage.VerifyRuntimeArchive, s.paths.RuntimeArchive, err)
	}

	s.report(progress.ExtractJre)

	if err := s.Provider.Extract(s.paths.RuntimeArchive, s.paths.RuntimeDir); err != nil {
		if errors.Is(err, archive.ErrInvalidArchiveLayout) {
			return &StageError{Stage: stage.VerifyRuntimeArchive, Path: s.paths.RuntimeArchive, Err: err}
		}
		// A partial tree is caught by the tree check on the next pass.
		return s.retry(stage.VerifyRuntimeArchive, s.paths.RuntimeDir, err)
	}
	return nil
}

func (s *run) verifyExtractedRuntime() error {
	s.report(progress.CheckJreFolder)

	if err := s.Provider.VerifyExtracted(s.paths.RuntimeDir, s.paths.RuntimeArchive); err != nil {
		if errors.Is(err, archive.ErrInvalidArchiveLayout) {
			return &StageError{Stage: stage.VerifyExtractedRuntime, Path: s.paths.RuntimeArchive, Err: err}
		}
		if rmErr := os.RemoveAll(s.paths.RuntimeDir); rmErr != nil {
			return &StageError{Stage: stage.VerifyExtractedRuntime, Path: s.paths.RuntimeDir, Err: rmErr}
		}
		s.logger.Info("deleted inconsistent runtime directory", "path", s.paths.RuntimeDir)
		return s.retry(stage.VerifyExtractedRuntime, s.paths.RuntimeDir, err)
	}

	// Commit point: without the archive the runtime counts as provisioned.
	if err := removeFile(s.paths.RuntimeArchive); err != nil {
		return &StageError{Stage: stage.VerifyExtractedRuntime, Path: s.paths.RuntimeArchive, Err: err}
	}
	s.logger.Info("runtime provisioned", "dir", s.paths.RuntimeDir)
	return nil
}

func (s *run) acquireOrLaunchApplication(ctx context.Context, present bool) (int, bool, error) {
	pkg := s.paths.ApplicationPackage

	if !present {
		s.report(progress.DownloadLauncher)
		if err := s.Application.Download(ctx, pkg); err != nil {
			return 0, false, &StageError{Stage: stage.AcquireOrLaunchApplication, Path: pkg, Err: err}
		}
		return 0, false, nil
	}

	s.report(progress.VerifyLauncher)
	if err := s.Application.Verify(ctx, pkg); err != nil {
		if fetch.IsRemoteFailure(err) {
			return 0, false, s.retry(stage.AcquireOrLaunchApplication, pkg, err)
		}
		if rmErr := removeFile(pkg); rmErr != nil {
			return 0, false, &StageError{Stage: stage.AcquireOrLaunchApplication, Path: pkg, Err: rmErr}
		}
		s.logger.Info("deleted application package that failed verification", "path", pkg)
		return 0, false, s.retry(stage.AcquireOrLaunchApplication, pkg, err)
	}

	s.report(progress.RunLauncher)
	pid, err := s.Application.Run(pkg, s.paths.RuntimeDir)
	if err != nil {
		return 0, false, &StageError{Stage: stage.AcquireOrLaunchApplication, Path: s.paths.RuntimeDir, Err: err}
	}
	return pid, true, nil
}

func removeFile(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}
