// Package gitcli runs the git binary for operations go-git cannot perform
// (three-way merges with conflict state, stash, push to a local bare remote).
package gitcli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/festy23/codeshelf/internal/config"
)

// ErrCommandTimeout is wrapped when a command exceeds the per-command timeout.
var ErrCommandTimeout = errors.New("git command timed out")

// CommandError describes a failed git invocation.
type CommandError struct {
	Args     []string
	Dir      string
	ExitCode int
	Stdout   string
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		msg = strings.TrimSpace(e.Stdout)
	}
	if msg == "" {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("git %s: %s", strings.Join(e.Args, " "), msg)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Runner executes git with a fixed identity and timeout.
type Runner struct {
	binary  string
	timeout time.Duration
	env     []string
	logger  *zap.SugaredLogger
}

// New creates a Runner from storage settings.
func New(cfg config.StorageConfig, logger *zap.SugaredLogger) *Runner {
	env := append(os.Environ(),
		"GIT_AUTHOR_NAME="+cfg.AuthorName,
		"GIT_AUTHOR_EMAIL="+cfg.AuthorEmail,
		"GIT_COMMITTER_NAME="+cfg.AuthorName,
		"GIT_COMMITTER_EMAIL="+cfg.AuthorEmail,
		"GIT_TERMINAL_PROMPT=0",
		"GIT_CONFIG_NOSYSTEM=1",
		"LC_ALL=C",
	)
	return &Runner{
		binary:  cfg.GitBinary,
		timeout: cfg.CommandTimeout,
		env:     env,
		logger:  logger,
	}
}

// Run executes git args in dir and returns stdout.
func (r *Runner) Run(ctx context.Context, dir string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.binary, args...)
	cmd.Dir = dir
	cmd.Env = r.env

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	r.logger.Debugw("git",
		"args", args,
		"dir", dir,
		"elapsed", time.Since(start),
		"error", err,
	)
	if err == nil {
		return stdout.Bytes(), nil
	}

	cmdErr := &CommandError{
		Args:     args,
		Dir:      dir,
		ExitCode: -1,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Err:      err,
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		cmdErr.ExitCode = exitErr.ExitCode()
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		cmdErr.Err = fmt.Errorf("%w after %s", ErrCommandTimeout, r.timeout)
	}
	return stdout.Bytes(), cmdErr
}

// Output is Run with surrounding whitespace trimmed from stdout.
func (r *Runner) Output(ctx context.Context, dir string, args ...string) (string, error) {
	out, err := r.Run(ctx, dir, args...)
	return strings.TrimSpace(string(out)), err
}

// ExitCode extracts the exit status of a failed command, or -1.
func ExitCode(err error) int {
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.ExitCode
	}
	return -1
}
