// Package workspace manages ephemeral working clones of bare repositories.
// Every mutation happens in a fresh clone that is removed afterwards, on
// success and failure alike.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/festy23/codeshelf/internal/gitcli"
	"github.com/festy23/codeshelf/internal/metrics"
	"github.com/festy23/codeshelf/internal/vcs"
)

var (
	// ErrPathOutsideWorkspace is returned for file paths escaping the clone root.
	ErrPathOutsideWorkspace = errors.New("path escapes the workspace")
	// ErrPushRejected is returned when origin refuses a non-fast-forward push.
	ErrPushRejected = errors.New("push rejected by origin")
)

// Manager creates workspaces under a scratch directory.
type Manager struct {
	git     *gitcli.Runner
	dir     string
	metrics *metrics.Metrics
	logger  *zap.SugaredLogger
}

// NewManager creates a workspace manager. dir may be empty for the OS temp dir.
func NewManager(git *gitcli.Runner, dir string, m *metrics.Metrics, logger *zap.SugaredLogger) *Manager {
	return &Manager{
		git:     git,
		dir:     dir,
		metrics: m,
		logger:  logger,
	}
}

// Workspace is an exclusively owned working clone.
type Workspace struct {
	root      string
	git       *gitcli.Runner
	metrics   *metrics.Metrics
	logger    *zap.SugaredLogger
	closeOnce sync.Once
	closeErr  error
}

func (m *Manager) create() (*Workspace, error) {
	if m.dir != "" {
		if err := os.MkdirAll(m.dir, 0o755); err != nil {
			return nil, fmt.Errorf("create workspace dir: %w", err)
		}
	}
	root, err := os.MkdirTemp(m.dir, "workspace-*")
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	m.metrics.WorkspaceOpened()
	return &Workspace{
		root:    root,
		git:     m.git,
		metrics: m.metrics,
		logger:  m.logger.With("workspace", root),
	}, nil
}

// Open clones origin with all its branches into a fresh directory.
func (m *Manager) Open(ctx context.Context, origin string) (*Workspace, error) {
	ws, err := m.create()
	if err != nil {
		return nil, err
	}
	if _, err := ws.git.Run(ctx, ws.root, "clone", "--quiet", "--no-hardlinks", origin, "."); err != nil {
		_ = ws.Close()
		return nil, fmt.Errorf("clone %s: %w", origin, err)
	}
	ws.logger.Debugw("workspace opened", "origin", origin)
	return ws, nil
}

// Init creates an empty workspace on branch with origin configured, for
// seeding a repository that has no commits yet.
func (m *Manager) Init(ctx context.Context, origin, branch string) (*Workspace, error) {
	ws, err := m.create()
	if err != nil {
		return nil, err
	}
	steps := [][]string{
		{"init", "--quiet"},
		{"symbolic-ref", "HEAD", "refs/heads/" + branch},
		{"remote", "add", "origin", origin},
	}
	for _, args := range steps {
		if _, err := ws.git.Run(ctx, ws.root, args...); err != nil {
			_ = ws.Close()
			return nil, fmt.Errorf("init workspace for %s: %w", origin, err)
		}
	}
	return ws, nil
}

// With opens a clone of origin, runs fn and always removes the clone.
func (m *Manager) With(ctx context.Context, origin string, fn func(ws *Workspace) error) error {
	ws, err := m.Open(ctx, origin)
	if err != nil {
		return err
	}
	defer ws.Close()
	return fn(ws)
}

// Root returns the clone directory.
func (w *Workspace) Root() string {
	return w.root
}

// Close removes the clone. It is idempotent.
func (w *Workspace) Close() error {
	w.closeOnce.Do(func() {
		w.closeErr = os.RemoveAll(w.root)
		w.metrics.WorkspaceClosed()
		if w.closeErr != nil {
			w.logger.Errorw("failed to remove workspace", "error", w.closeErr)
			return
		}
		w.logger.Debugw("workspace removed")
	})
	return w.closeErr
}

func (w *Workspace) run(ctx context.Context, args ...string) ([]byte, error) {
	return w.git.Run(ctx, w.root, args...)
}

func (w *Workspace) output(ctx context.Context, args ...string) (string, error) {
	return w.git.Output(ctx, w.root, args...)
}

// HasUncommittedChanges reports tracked or untracked modifications.
func (w *Workspace) HasUncommittedChanges(ctx context.Context) (bool, error) {
	out, err := w.output(ctx, "status", "--porcelain")
	if err != nil {
		return false, fmt.Errorf("status: %w", err)
	}
	return out != "", nil
}

// Stash shelves local changes including untracked files.
func (w *Workspace) Stash(ctx context.Context) error {
	if _, err := w.run(ctx, "stash", "push", "--include-untracked", "--quiet"); err != nil {
		return fmt.Errorf("stash: %w", err)
	}
	return nil
}

// ApplyStash re-applies the latest stash. Failure is logged and swallowed.
func (w *Workspace) ApplyStash(ctx context.Context) {
	if _, err := w.run(ctx, "stash", "pop", "--quiet"); err != nil {
		w.logger.Warnw("failed to re-apply stashed changes", "error", err)
	}
}

// Fetch updates the remote-tracking refs.
func (w *Workspace) Fetch(ctx context.Context) error {
	if _, err := w.run(ctx, "fetch", "--quiet", "--prune", "origin"); err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	return nil
}

func (w *Workspace) refExists(ctx context.Context, ref string) bool {
	_, err := w.run(ctx, "rev-parse", "--verify", "--quiet", ref+"^{commit}")
	return err == nil
}

// RemoteBranchExists reports whether refs/remotes/origin/<branch> exists.
func (w *Workspace) RemoteBranchExists(ctx context.Context, branch string) bool {
	return w.refExists(ctx, "refs/remotes/origin/"+branch)
}

// Checkout switches to branch, creating a local tracking branch from
// origin/<branch> when no local branch exists yet.
func (w *Workspace) Checkout(ctx context.Context, branch string) error {
	switch {
	case w.refExists(ctx, "refs/heads/"+branch):
		if _, err := w.run(ctx, "checkout", "--quiet", branch); err != nil {
			return fmt.Errorf("checkout %s: %w", branch, err)
		}
	case w.RemoteBranchExists(ctx, branch):
		if _, err := w.run(ctx, "checkout", "--quiet", "-b", branch, "--track", "origin/"+branch); err != nil {
			return fmt.Errorf("checkout %s: %w", branch, err)
		}
	default:
		return fmt.Errorf("%w: %s", vcs.ErrBranchNotFound, branch)
	}
	return nil
}

// Pull fast-forwards the current branch to origin/<branch>.
func (w *Workspace) Pull(ctx context.Context, branch string) error {
	if _, err := w.run(ctx, "pull", "--quiet", "--ff-only", "origin", branch); err != nil {
		return fmt.Errorf("pull %s: %w", branch, err)
	}
	return nil
}

// resolvePath maps a slash-separated path inside the clone to an absolute one.
func (w *Workspace) resolvePath(rel string) (string, error) {
	clean := filepath.FromSlash(strings.TrimPrefix(rel, "./"))
	if !filepath.IsLocal(clean) {
		return "", fmt.Errorf("%w: %q", ErrPathOutsideWorkspace, rel)
	}
	first := strings.Split(filepath.ToSlash(filepath.Clean(clean)), "/")[0]
	if first == ".git" {
		return "", fmt.Errorf("%w: %q", ErrPathOutsideWorkspace, rel)
	}
	return filepath.Join(w.root, clean), nil
}

// WriteFile creates or overwrites rel, creating parent directories.
func (w *Workspace) WriteFile(rel string, data []byte) error {
	path, err := w.resolvePath(rel)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("write %s: %w", rel, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", rel, err)
	}
	return nil
}

// WriteStream is WriteFile for uploads.
func (w *Workspace) WriteStream(rel string, r io.Reader) error {
	path, err := w.resolvePath(rel)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("write %s: %w", rel, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write %s: %w", rel, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", rel, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write %s: %w", rel, err)
	}
	return nil
}

// ReadFile reads rel from the working tree.
func (w *Workspace) ReadFile(rel string) ([]byte, error) {
	path, err := w.resolvePath(rel)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

// AddAll stages every change, deletions included.
func (w *Workspace) AddAll(ctx context.Context) error {
	if _, err := w.run(ctx, "add", "--all"); err != nil {
		return fmt.Errorf("add: %w", err)
	}
	return nil
}

// Add stages the given paths.
func (w *Workspace) Add(ctx context.Context, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	args := append([]string{"add", "--"}, paths...)
	if _, err := w.run(ctx, args...); err != nil {
		return fmt.Errorf("add: %w", err)
	}
	return nil
}

// Commit records the index and returns the full commit id. Empty commits
// are allowed.
func (w *Workspace) Commit(ctx context.Context, message string) (string, error) {
	if _, err := w.run(ctx, "commit", "--quiet", "--allow-empty", "--no-verify", "-m", message); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return w.Head(ctx)
}

// Head returns the full id of HEAD.
func (w *Workspace) Head(ctx context.Context) (string, error) {
	out, err := w.output(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("rev-parse HEAD: %w", err)
	}
	return out, nil
}

// Push sends refspecs to origin.
func (w *Workspace) Push(ctx context.Context, refspecs ...string) error {
	args := append([]string{"push", "--quiet", "--porcelain", "origin"}, refspecs...)
	if _, err := w.run(ctx, args...); err != nil {
		if isRejected(err) {
			return fmt.Errorf("%w: %v", ErrPushRejected, err)
		}
		return fmt.Errorf("push: %w", err)
	}
	return nil
}

func isRejected(err error) bool {
	var cmdErr *gitcli.CommandError
	if !errors.As(err, &cmdErr) {
		return false
	}
	text := cmdErr.Stdout + cmdErr.Stderr
	return strings.Contains(text, "[rejected]") ||
		strings.Contains(text, "non-fast-forward") ||
		strings.Contains(text, "fetch first")
}
