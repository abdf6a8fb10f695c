package jre

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Runner executes a command and returns what it wrote to stdout and
// stderr.
type Runner interface {
	Output(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Output implements Runner. A non-zero exit status is not an error here:
// whatever the command printed is still returned.
func (ExecRunner) Output(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		err = nil
	}
	return stdout.Bytes(), stderr.Bytes(), err
}

// FindInstalled asks the java on PATH for its home directory and returns it
// when that runtime bundles JavaFX (lib/ext/jfxrt.jar). ok is false when
// java is missing, prints no java.home, or lacks JavaFX.
func FindInstalled(ctx context.Context, runner Runner) (home string, ok bool) {
	stdout, stderr, err := runner.Output(ctx, "java", "-XshowSettings:properties", "-version")
	if err != nil {
		return "", false
	}

	home, found := parseJavaHome(string(stdout) + "\n" + string(stderr))
	if !found {
		return "", false
	}

	info, err := os.Stat(filepath.Join(home, "lib", "ext", "jfxrt.jar"))
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return home, true
}

// parseJavaHome returns the value of the first "java.home = ..." line.
// Lines mentioning java.home without a '=' are skipped.
func parseJavaHome(output string) (string, bool) {
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.Contains(line, "java.home") {
			continue
		}
		idx := strings.IndexByte(line, '=')
		if idx < 0 {
			continue
		}
		home := strings.TrimSpace(line[idx+1:])
		if home == "" {
			continue
		}
		return home, true
	}
	return "", false
}
