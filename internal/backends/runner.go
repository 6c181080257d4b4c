package backends

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"fedsearch/internal/errors"
)

// Runner is the invocation collaborator: given a rendered query and the
// collections to search, produce the backend's raw output lines. The
// dispatcher never looks past this interface, so tests and alternative
// transports (an IMAP session bridge, say) plug in here.
type Runner interface {
	Run(ctx context.Context, renderedQuery string, collections []string) ([]string, error)
}

// ExecRunner runs the backend's search program as a subprocess. The
// rendered query is appended to the configured arguments, followed by the
// collections. No timeout of its own; the caller's context bounds it.
type ExecRunner struct {
	Program string
	Args    []string
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, renderedQuery string, collections []string) ([]string, error) {
	args := make([]string, 0, len(r.Args)+1+len(collections))
	args = append(args, r.Args...)
	args = append(args, renderedQuery)
	args = append(args, collections...)

	cmd := exec.CommandContext(ctx, r.Program, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, errors.New(errors.BackendFailed, r.Program+": "+msg, err)
	}

	raw := strings.TrimRight(stdout.String(), "\n")
	if raw == "" {
		return nil, nil
	}
	return strings.Split(raw, "\n"), nil
}
