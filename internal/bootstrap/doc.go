// Package bootstrap drives provisioning from an empty install directory to
// a running application.
//
// # State
//
// There is no state file. Before every step the loop observes which of the
// provisioning paths exist and resolves the next stage from that alone:
//
//	archive  runtime dir  stage
//	-------  -----------  --------------------------
//	absent   absent       AcquireRuntime
//	absent   present      AcquireOrLaunchApplication
//	present  absent       VerifyRuntimeArchive
//	present  present      VerifyExtractedRuntime
//
// The runtime archive is removed only after the extracted tree verifies,
// so its absence next to a runtime directory means the runtime is done.
//
// # Repair
//
// Detectable local corruption is repaired by deleting the affected artifact
// and resolving again: a digest mismatch deletes the archive, a tree
// mismatch deletes the runtime directory, a package that fails
// verification deletes the package. Each repair and each failed fetch costs
// one attempt from a per-run budget. Everything else ends the run with a
// *StageError.
//
// # Usage
//
//	runner := &bootstrap.Runner{
//	    Provider:    jre.NewLiberica(desc, cfg.Project.JREVersion),
//	    Application: launcher.New(cfg.Project.LauncherURL, desc),
//	    Paths:       layout,
//	    Reporter:    reporter,
//	}
//	result, err := runner.Run(ctx)
package bootstrap
