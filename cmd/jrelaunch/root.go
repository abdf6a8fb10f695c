package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/jrelaunch/internal/config"
	"github.com/ZebulonRouseFrantzich/jrelaunch/internal/jre"
	"github.com/ZebulonRouseFrantzich/jrelaunch/internal/logging"
	"github.com/ZebulonRouseFrantzich/jrelaunch/internal/paths"
	"github.com/ZebulonRouseFrantzich/jrelaunch/internal/platform"
	"github.com/ZebulonRouseFrantzich/jrelaunch/internal/process"
)

// RootOptions holds global flags and the collaborators tests substitute.
type RootOptions struct {
	ConfigPath string
	Root       string
	Verbose    bool
	Quiet      bool

	// ReleasesURL overrides the runtime release index (hidden flag).
	ReleasesURL string

	// Detector, Spawner and JavaRunner default to the real implementations
	// when nil.
	Detector   platform.Detector
	Spawner    process.Spawner
	JavaRunner jre.Runner
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jrelaunch",
		Short: "Provision a Java runtime and start the launcher",
		Long: `jrelaunch downloads and verifies a JavaFX-enabled Liberica JRE, extracts it
into the per-user install directory, downloads the application package and
starts it with the provisioned runtime.

Every run resumes from whatever is already on disk and repairs what fails
verification.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProvision(cmd.Context(), opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "configuration file (.lua, .json or .jsonc); the built-in config when empty")
	cmd.PersistentFlags().StringVar(&opts.Root, "root", "", "install directory, overriding the per-OS convention and "+paths.HomeEnv)
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().BoolVarP(&opts.Quiet, "quiet", "q", false, "do not render progress")
	cmd.PersistentFlags().StringVar(&opts.ReleasesURL, "releases-url", "", "runtime release index URL")
	_ = cmd.PersistentFlags().MarkHidden("releases-url")

	cmd.AddCommand(newRunCommand(opts))
	cmd.AddCommand(newStageCommand(opts))
	cmd.AddCommand(newVersionCommand())

	return cmd
}

// environment is what every command derives from the flags.
type environment struct {
	config   *config.Config
	platform *platform.Descriptor
	paths    *paths.Paths
	logger   logging.Logger
}

func loadEnvironment(ctx context.Context, opts *RootOptions, stderr io.Writer) (*environment, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	detector := opts.Detector
	if detector == nil {
		detector = platform.NewDetector()
	}
	desc, err := detector.Detect(ctx)
	if err != nil {
		return nil, fmt.Errorf("detect platform: %w", err)
	}

	cfg, err := loadConfig(ctx, opts.ConfigPath, detector)
	if err != nil {
		return nil, errors.New(config.FormatError(err, opts.Verbose))
	}

	layout, err := paths.Resolve(cfg.Project.Name, paths.Options{Root: opts.Root})
	if err != nil {
		return nil, fmt.Errorf("resolve install directory: %w", err)
	}

	return &environment{
		config:   cfg,
		platform: desc,
		paths:    layout,
		logger:   logging.New(stderr, opts.Verbose),
	}, nil
}

func loadConfig(ctx context.Context, path string, detector platform.Detector) (*config.Config, error) {
	if path == "" {
		return config.Default()
	}
	return config.NewParser(detector).ParseFile(ctx, path)
}
