// Package execute runs external commands: a one-shot Runner port used by
// the prober and installers, and a supervised Process for foreground
// streaming.
package execute

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// Runner is the narrow execution port injected into components that shell
// out, so parsing and policy logic can be tested without real processes.
type Runner interface {
	// Run executes a command line and returns its stdout and stderr.
	// A non-zero exit status is returned as an error; the captured output
	// is still returned so callers can parse diagnostic text (the v4l2
	// format table arrives on stderr with a non-zero exit).
	Run(ctx context.Context, command string) (stdout, stderr string, err error)
}

// CommandRunner executes command lines directly, without a shell.
type CommandRunner struct{}

// NewRunner creates the default runner.
func NewRunner() *CommandRunner {
	return &CommandRunner{}
}

// Run implements Runner.
func (r *CommandRunner) Run(ctx context.Context, command string) (string, string, error) {
	args, err := parseCommand(command)
	if err != nil {
		return "", "", err
	}
	if len(args) == 0 {
		return "", "", fmt.Errorf("empty command")
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	runErr := cmd.Run()
	if runErr != nil {
		return outBuf.String(), errBuf.String(),
			fmt.Errorf("command %q: %w", args[0], runErr)
	}
	return outBuf.String(), errBuf.String(), nil
}
