package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/jrelaunch/internal/bootstrap"
)

func newStageCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "stage",
		Short:         "Show the next provisioning stage without running it",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment(cmd.Context(), opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			runner, err := newRunner(cmd.Context(), opts, env)
			if err != nil {
				return err
			}
			printStage(cmd.OutOrStdout(), env, runner)
			return nil
		},
	}
}

func printStage(w io.Writer, env *environment, runner *bootstrap.Runner) {
	obs := runner.Observe()
	fmt.Fprintf(w, "install dir:  %s\n", env.paths.Root)
	fmt.Fprintf(w, "platform:     %s\n", env.platform.Family)
	fmt.Fprintf(w, "archive:      %s\n", presence(obs.RuntimeArchive))
	if runner.PreinstalledRuntime != "" {
		fmt.Fprintf(w, "runtime dir:  %s (pre-installed at %s)\n", presence(obs.RuntimeDir), runner.PreinstalledRuntime)
	} else {
		fmt.Fprintf(w, "runtime dir:  %s\n", presence(obs.RuntimeDir))
	}
	fmt.Fprintf(w, "package:      %s\n", presence(obs.ApplicationPackage))
	fmt.Fprintf(w, "next stage:   %s\n", obs.Stage())
}

func presence(ok bool) string {
	if ok {
		return "present"
	}
	return "absent"
}
