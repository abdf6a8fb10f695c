// Package process starts child processes that outlive the caller.
package process

import (
	"errors"
	"fmt"
	"io"
	"os/exec"
)

// Spec describes a process to start.
type Spec struct {
	Path string
	Args []string
	Dir  string

	// Detached starts the child in its own session (Unix) or with no console
	// in a new process group (Windows) so it survives the parent's exit.
	Detached bool

	Stdout io.Writer
	Stderr io.Writer
}

// Spawner starts processes described by a Spec.
type Spawner interface {
	Spawn(spec Spec) (int, error)
}

// Starter is the Spawner backed by os/exec.
type Starter struct{}

var _ Spawner = Starter{}

// Spawn implements Spawner.
func (Starter) Spawn(spec Spec) (int, error) {
	return Spawn(spec)
}

// Spawn starts spec and returns the child's pid without waiting for it. The
// child is released, so the caller holds no handle and leaves no zombie
// bookkeeping behind.
func Spawn(spec Spec) (int, error) {
	if spec.Path == "" {
		return 0, errors.New("process path is empty")
	}

	cmd := exec.Command(spec.Path, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Stdout = spec.Stdout
	cmd.Stderr = spec.Stderr
	cmd.SysProcAttr = sysProcAttr(spec.Detached)

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("start %s: %w", spec.Path, err)
	}

	pid := cmd.Process.Pid
	if err := cmd.Process.Release(); err != nil {
		return pid, fmt.Errorf("release %s (pid %d): %w", spec.Path, pid, err)
	}
	return pid, nil
}
