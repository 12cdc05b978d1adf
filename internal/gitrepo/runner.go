package gitrepo

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes git commands in a working directory. The production
// implementation shells out to the git binary; tests substitute a fake.
type Runner interface {
	Run(ctx context.Context, dir string, args ...string) (string, error)
}

// ExecRunner runs the git binary via os/exec.
type ExecRunner struct {
	// GitPath overrides the binary looked up on PATH. Optional.
	GitPath string
}

// Run executes git with the given arguments and returns trimmed stdout.
// Stderr is folded into the returned error.
func (r ExecRunner) Run(ctx context.Context, dir string, args ...string) (string, error) {
	gitPath := r.GitPath
	if gitPath == "" {
		gitPath = "git"
	}

	cmd := exec.CommandContext(ctx, gitPath, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("git %s: %s", strings.Join(args, " "), msg)
	}
	return strings.TrimSpace(stdout.String()), nil
}
