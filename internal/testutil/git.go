// Package testutil builds throwaway git repositories for tests.
package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// RequireGit skips the test when no git binary is on PATH.
func RequireGit(t testing.TB) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}
}

func gitEnv() []string {
	return append(os.Environ(),
		"GIT_AUTHOR_NAME=Fixture",
		"GIT_AUTHOR_EMAIL=fixture@example.com",
		"GIT_COMMITTER_NAME=Fixture",
		"GIT_COMMITTER_EMAIL=fixture@example.com",
		"GIT_TERMINAL_PROMPT=0",
		"GIT_CONFIG_NOSYSTEM=1",
		"LC_ALL=C",
	)
}

// Git runs git in dir and returns trimmed stdout, failing the test on error.
func Git(t testing.TB, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = gitEnv()
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %s: %s", strings.Join(args, " "), out)
	return strings.TrimSpace(string(out))
}

// NewBareRepo creates <baseDir>/<name>.git with one commit of files on branch.
func NewBareRepo(t testing.TB, baseDir, name, branch string, files map[string]string) string {
	t.Helper()
	RequireGit(t)

	bare := filepath.Join(baseDir, name+".git")
	require.NoError(t, os.MkdirAll(bare, 0o755))
	Git(t, bare, "init", "-q", "--bare")
	Git(t, bare, "symbolic-ref", "HEAD", "refs/heads/"+branch)

	work := t.TempDir()
	Git(t, work, "init", "-q")
	Git(t, work, "symbolic-ref", "HEAD", "refs/heads/"+branch)
	Git(t, work, "remote", "add", "origin", bare)
	writeFiles(t, work, files)
	Git(t, work, "add", "-A")
	Git(t, work, "commit", "-q", "--allow-empty", "-m", "Initial commit")
	Git(t, work, "push", "-q", "origin", branch)
	return bare
}

// Change describes one commit pushed by Commit.
type Change struct {
	// Branch receives the commit. It is created from Base when missing.
	Branch  string
	Base    string
	Files   map[string]string
	Deleted []string
	Renamed map[string]string
	Message string
}

// Commit clones bare, applies c and pushes it. It returns the new commit id.
func Commit(t testing.TB, bare string, c Change) string {
	t.Helper()

	work := t.TempDir()
	Git(t, work, "clone", "-q", bare, ".")

	if remoteHas(work, c.Branch) {
		Git(t, work, "checkout", "-q", "-B", c.Branch, "origin/"+c.Branch)
	} else {
		Git(t, work, "checkout", "-q", "-b", c.Branch, "origin/"+c.Base)
	}

	for from, to := range c.Renamed {
		require.NoError(t, os.MkdirAll(filepath.Dir(filepath.Join(work, to)), 0o755))
		Git(t, work, "mv", from, to)
	}
	for _, path := range c.Deleted {
		Git(t, work, "rm", "-q", path)
	}
	writeFiles(t, work, c.Files)

	msg := c.Message
	if msg == "" {
		msg = "update " + c.Branch
	}
	Git(t, work, "add", "-A")
	Git(t, work, "commit", "-q", "--allow-empty", "-m", msg)
	Git(t, work, "push", "-q", "origin", c.Branch)
	return Git(t, work, "rev-parse", "HEAD")
}

// ReadBranchFile returns the content of path at the tip of branch in bare.
func ReadBranchFile(t testing.TB, bare, branch, path string) string {
	t.Helper()
	cmd := exec.Command("git", "show", branch+":"+path)
	cmd.Dir = bare
	cmd.Env = gitEnv()
	out, err := cmd.Output()
	require.NoError(t, err)
	return string(out)
}

func remoteHas(work, branch string) bool {
	cmd := exec.Command("git", "rev-parse", "--verify", "-q", "refs/remotes/origin/"+branch)
	cmd.Dir = work
	cmd.Env = gitEnv()
	return cmd.Run() == nil
}

func writeFiles(t testing.TB, root string, files map[string]string) {
	t.Helper()
	for path, content := range files {
		full := filepath.Join(root, path)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
}
