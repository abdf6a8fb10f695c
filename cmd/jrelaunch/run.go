package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/jrelaunch/internal/bootstrap"
	"github.com/ZebulonRouseFrantzich/jrelaunch/internal/fetch"
	"github.com/ZebulonRouseFrantzich/jrelaunch/internal/jre"
	"github.com/ZebulonRouseFrantzich/jrelaunch/internal/launcher"
	"github.com/ZebulonRouseFrantzich/jrelaunch/internal/progress"
	"github.com/ZebulonRouseFrantzich/jrelaunch/internal/signature"
)

func newRunCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Provision the runtime and start the launcher (default)",
		Long: `Provision the runtime and start the launcher.

Example:
  jrelaunch run
  jrelaunch run --config ./launcher.lua --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProvision(cmd.Context(), opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
}

func runProvision(ctx context.Context, opts *RootOptions, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	env, err := loadEnvironment(ctx, opts, stderr)
	if err != nil {
		return err
	}
	runner, err := newRunner(ctx, opts, env)
	if err != nil {
		return err
	}

	logEvents := progress.ReporterFunc(func(ev progress.Event) {
		env.logger.Debug("progress", "status", ev.Status.String(), "fraction", ev.Fraction)
	})

	if opts.Quiet {
		runner.Reporter = logEvents
		_, err = runner.Run(ctx)
		return err
	}

	terminal := progress.NewTerminal(stdout, progress.Style{
		Title:         env.config.Window.Title,
		TextColor:     env.config.Window.TextColor,
		BarColor:      env.config.Window.ProgressBarColor,
		BarBackground: env.config.Window.ProgressBarBackground,
	})
	reporter := progress.NewChannelReporter(16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		terminal.Consume(reporter.Events())
	}()
	runner.Reporter = progress.Multi(reporter, logEvents)

	_, err = runner.Run(ctx)
	reporter.Close()
	<-done
	if err != nil && terminal.ShowedFailure() {
		return &shownError{err: err}
	}
	return err
}

// newRunner wires the provisioning loop from the loaded environment. With
// check_jre set, a qualifying system runtime replaces the provisioned one.
func newRunner(ctx context.Context, opts *RootOptions, env *environment) (*bootstrap.Runner, error) {
	project := env.config.Project

	downloader := fetch.NewDownloader(fetch.WithTimeout(project.RequestTimeout()))

	provider := jre.NewLiberica(env.platform, project.JREVersion,
		jre.WithDownloader(downloader),
		jre.WithReleasesURL(opts.ReleasesURL),
		jre.WithLogger(env.logger),
	)

	launcherOpts := []launcher.Option{
		launcher.WithUserAgent(project.UserAgent),
		launcher.WithDownloader(downloader),
		launcher.WithSpawner(opts.Spawner),
		launcher.WithLogger(env.logger),
	}
	if project.LauncherSignatureURL != "" {
		verifier, err := signature.NewVerifier([]byte(project.LauncherPublicKey))
		if err != nil {
			return nil, fmt.Errorf("launcher public key: %w", err)
		}
		launcherOpts = append(launcherOpts, launcher.WithSignature(project.LauncherSignatureURL, verifier))
	}

	runner := &bootstrap.Runner{
		Provider:    provider,
		Application: launcher.New(project.LauncherURL, env.platform, launcherOpts...),
		Paths:       env.paths,
		Logger:      env.logger,
		MaxAttempts: project.Attempts(),
	}

	if project.CheckJRE {
		javaRunner := opts.JavaRunner
		if javaRunner == nil {
			javaRunner = jre.ExecRunner{}
		}
		if home, ok := jre.FindInstalled(ctx, javaRunner); ok {
			runner.PreinstalledRuntime = home
		} else {
			env.logger.Debug("no suitable pre-installed runtime")
		}
	}
	return runner, nil
}
