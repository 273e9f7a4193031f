// Package tool runs the external collaborators of the server (linter,
// formatter, analyzer) behind a single interface so they can be replaced by
// fakes.
package tool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/op/go-logging"
)

var log = logging.MustGetLogger("tool")

// Tool consumes input and produces output.
type Tool interface {
	Invoke(ctx context.Context, input []byte) ([]byte, error)
}

// Func adapts an ordinary function to Tool.
type Func func(ctx context.Context, input []byte) ([]byte, error)

// Invoke implements Tool.
func (f Func) Invoke(ctx context.Context, input []byte) ([]byte, error) {
	return f(ctx, input)
}

// ExitError reports a collaborator that ran but exited with a non-zero
// status.
type ExitError struct {
	Name   string
	Status int
	Stderr string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with status %d", e.Name, e.Status)
}

// Command is a Tool backed by a process. Input is written to the process's
// standard input and its standard output is returned.
type Command struct {
	Name string
	Args []string
	Dir  string
}

// NewCommand returns a Command for argv, or nil when argv is empty.
func NewCommand(dir string, argv ...string) *Command {
	if len(argv) == 0 {
		return nil
	}
	return &Command{
		Name: argv[0],
		Args: argv[1:],
		Dir:  dir,
	}
}

func (c *Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Invoke implements Tool.
//
// When the process exits with a non-zero status the captured standard output
// is returned together with an *ExitError, since linters report findings
// through their exit status. A process that cannot be started returns only
// the error.
func (c *Command) Invoke(ctx context.Context, input []byte) ([]byte, error) {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if input != nil {
		cmd.Stdin = bytes.NewReader(input)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Debugf("running %s", c)
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return stdout.Bytes(), &ExitError{
				Name:   c.Name,
				Status: exitErr.ExitCode(),
				Stderr: stderr.String(),
			}
		}
		return nil, fmt.Errorf("run %s: %w", c.Name, err)
	}

	return stdout.Bytes(), nil
}
