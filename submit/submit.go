// Package submit runs the CRAB client on generated descriptors.
package submit

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/armon/circbuf"
	"github.com/kballard/go-shellquote"
)

// DefaultCommand submits a descriptor with the CRAB client.
const DefaultCommand = "crab submit --config"

// outputSize bounds the captured command output.
const outputSize = 64 * 1024

// waitDelay bounds the wait for output of processes started by a killed
// command.
const waitDelay = 5 * time.Second

var taskName = regexp.MustCompile(`(?m)Task name:\s*(\S+)`)

// Runner runs a submit command with the descriptor path appended.
type Runner struct {
	args []string
}

// NewRunner returns a Runner for "command", split like a shell would.
func NewRunner(command string) (*Runner, error) {
	if command == "" {
		command = DefaultCommand
	}
	args, err := shellquote.Split(command)
	if err != nil {
		return nil, fmt.Errorf("parsing submit command %q: %w", command, err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("empty submit command")
	}
	return &Runner{args: args}, nil
}

// Error is returned when the submit command fails. Output holds the tail of
// the combined stdout and stderr.
type Error struct {
	Path   string
	Output string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("submitting %s: %v\n%s", e.Path, e.Err, e.Output)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Submit runs the command for the descriptor at "path" and returns the CRAB
// task name reported by the client, which is empty if none was printed.
// The command is killed when ctx is canceled.
func (r *Runner) Submit(ctx context.Context, path string) (string, error) {
	out, err := circbuf.NewBuffer(outputSize)
	if err != nil {
		return "", err
	}

	args := append(append([]string{}, r.args[1:]...), path)
	cmd := exec.CommandContext(ctx, r.args[0], args...)
	cmd.Stdout = out
	cmd.Stderr = out
	cmd.WaitDelay = waitDelay

	if err := cmd.Run(); err != nil {
		return "", &Error{Path: path, Output: strings.TrimSpace(out.String()), Err: err}
	}

	if m := taskName.FindStringSubmatch(out.String()); m != nil {
		return m[1], nil
	}
	return "", nil
}
