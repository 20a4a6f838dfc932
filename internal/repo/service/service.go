// Package service provides business logic layer for repository module.
package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/festy23/codeshelf/internal/lock"
	repoModel "github.com/festy23/codeshelf/internal/repo/model"
	"github.com/festy23/codeshelf/internal/vcs"
	"github.com/festy23/codeshelf/internal/workspace"
)

// InitialCommitMessage is the message of the commit seeding a new repository.
const InitialCommitMessage = "Initial commit"

// Service defines the interface for repository operations.
type Service interface {
	// Create initializes a bare repository seeded with a README on the default branch.
	Create(ctx context.Context, req *repoModel.CreateRepositoryRequest) (*repoModel.CreateRepositoryResponse, error)

	// AddFiles writes files onto an existing branch, commits and pushes them.
	AddFiles(ctx context.Context, req *repoModel.AddFilesRequest) (*workspace.Status, error)

	// CommitLog returns the history of a branch, newest first.
	CommitLog(ctx context.Context, repoName, branchName string) ([]vcs.Commit, error)

	// CreateBranch creates a branch at the repository HEAD.
	CreateBranch(ctx context.Context, req *repoModel.CreateBranchRequest) (*vcs.Branch, error)

	// Branches lists local branches.
	Branches(ctx context.Context, repoName string) ([]vcs.Branch, error)

	// Repositories lists repository names.
	Repositories(ctx context.Context) ([]string, error)

	// URL returns a clone URL.
	URL(ctx context.Context, repoName string) (*repoModel.URLResponse, error)

	// Files returns every file at the tip of a branch.
	Files(ctx context.Context, repoName, branchName string) ([]vcs.File, error)
}

type service struct {
	store      *vcs.Store
	workspaces *workspace.Manager
	locker     lock.Locker
	logger     *zap.SugaredLogger
}

// New creates a new repository service instance.
func New(store *vcs.Store, workspaces *workspace.Manager, locker lock.Locker, logger *zap.SugaredLogger) Service {
	return &service{
		store:      store,
		workspaces: workspaces,
		locker:     locker,
		logger:     logger,
	}
}

func validateRepoName(name string) (string, error) {
	normalized, err := vcs.Normalize(name)
	if err != nil {
		return "", fmt.Errorf("%w: %v", repoModel.ErrInvalidRepoName, err)
	}
	return normalized, nil
}

func validateBranchName(branch string) error {
	if err := vcs.ValidateBranchName(branch); err != nil {
		return fmt.Errorf("%w: %v", repoModel.ErrInvalidBranchName, err)
	}
	return nil
}

// Readme is the content of the README.md seeding a new repository.
func Readme(name, description string) string {
	return "# " + name + "\n\n" + description + "\n\n"
}

// Create initializes a bare repository and pushes an initial commit.
func (s *service) Create(ctx context.Context, req *repoModel.CreateRepositoryRequest) (*repoModel.CreateRepositoryResponse, error) {
	name, err := validateRepoName(req.RepoName)
	if err != nil {
		return nil, err
	}

	var result *repoModel.CreateRepositoryResponse
	err = s.locker.WithLock(ctx, lock.RepoKey(name), func(ctx context.Context) error {
		ctx = context.WithoutCancel(ctx)
		path, err := s.store.Init(name)
		if err != nil {
			return err
		}

		commit, err := s.seed(ctx, path, name, req.Description)
		if err != nil {
			if rmErr := os.RemoveAll(path); rmErr != nil {
				s.logger.Errorw("failed to remove half-created repository", "repo", name, "error", rmErr)
			}
			return fmt.Errorf("seed repository %s: %w", name, err)
		}

		url, err := s.store.URL(name)
		if err != nil {
			return err
		}
		result = &repoModel.CreateRepositoryResponse{
			RepoName:      name,
			DefaultBranch: s.store.DefaultBranch(),
			CommitID:      vcs.ShortID(commit),
			URL:           url,
			Message:       "Repository created: " + name,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("repository created", "repo", name, "branch", result.DefaultBranch)
	return result, nil
}

func (s *service) seed(ctx context.Context, path, name, description string) (string, error) {
	branch := s.store.DefaultBranch()
	ws, err := s.workspaces.Init(ctx, path, branch)
	if err != nil {
		return "", err
	}
	defer ws.Close()

	if err := ws.WriteFile("README.md", []byte(Readme(name, description))); err != nil {
		return "", err
	}
	if err := ws.Add(ctx, "README.md"); err != nil {
		return "", err
	}
	commit, err := ws.Commit(ctx, InitialCommitMessage)
	if err != nil {
		return "", err
	}
	if err := ws.Push(ctx, branch); err != nil {
		return "", err
	}
	return commit, nil
}

// AddFiles clones the repository, applies the files on top of the branch
// tip and pushes a single commit. It holds the files lock of the repository.
func (s *service) AddFiles(ctx context.Context, req *repoModel.AddFilesRequest) (*workspace.Status, error) {
	name, err := validateRepoName(req.RepoName)
	if err != nil {
		return nil, err
	}
	if err := validateBranchName(req.BranchName); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.CommitMessage) == "" {
		return nil, repoModel.ErrInvalidCommitMessage
	}
	if req.FileName == "" && len(req.Files) == 0 {
		return nil, repoModel.ErrNoFiles
	}

	var status workspace.Status
	err = s.locker.WithLock(ctx, lock.FilesKey(name), func(ctx context.Context) error {
		ctx = context.WithoutCancel(ctx)
		path, err := s.store.Locate(name)
		if err != nil {
			return err
		}
		return s.workspaces.With(ctx, path, func(ws *workspace.Workspace) error {
			status, err = s.applyFiles(ctx, ws, req)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("files committed",
		"repo", name,
		"branch", req.BranchName,
		"added", len(status.Added),
		"changed", len(status.Changed),
	)
	return &status, nil
}

func (s *service) applyFiles(ctx context.Context, ws *workspace.Workspace, req *repoModel.AddFilesRequest) (workspace.Status, error) {
	dirty, err := ws.HasUncommittedChanges(ctx)
	if err != nil {
		return workspace.Status{}, err
	}
	if dirty {
		if err := ws.Stash(ctx); err != nil {
			return workspace.Status{}, err
		}
	}

	if err := ws.Fetch(ctx); err != nil {
		return workspace.Status{}, err
	}
	if !ws.RemoteBranchExists(ctx, req.BranchName) {
		return workspace.Status{}, fmt.Errorf("%w: %s", vcs.ErrBranchNotFound, req.BranchName)
	}
	if err := ws.Checkout(ctx, req.BranchName); err != nil {
		return workspace.Status{}, err
	}
	if err := ws.Pull(ctx, req.BranchName); err != nil {
		return workspace.Status{}, err
	}
	if dirty {
		ws.ApplyStash(ctx)
	}

	if req.FileName != "" {
		if err := ws.WriteFile(req.FileName, []byte(req.FileContent)); err != nil {
			return workspace.Status{}, err
		}
	}
	for _, f := range req.Files {
		if err := ws.WriteStream(f.Name, f.Content); err != nil {
			return workspace.Status{}, err
		}
	}

	if err := ws.AddAll(ctx); err != nil {
		return workspace.Status{}, err
	}
	status, err := ws.Status(ctx)
	if err != nil {
		return workspace.Status{}, err
	}
	if _, err := ws.Commit(ctx, req.CommitMessage); err != nil {
		return workspace.Status{}, err
	}
	if err := ws.Push(ctx, req.BranchName); err != nil {
		return workspace.Status{}, err
	}
	return status, nil
}

// CommitLog returns the branch history under the repository lock.
func (s *service) CommitLog(ctx context.Context, repoName, branchName string) ([]vcs.Commit, error) {
	name, err := validateRepoName(repoName)
	if err != nil {
		return nil, err
	}
	if err := validateBranchName(branchName); err != nil {
		return nil, err
	}

	var commits []vcs.Commit
	err = s.locker.WithLock(ctx, lock.RepoKey(name), func(context.Context) error {
		commits, err = s.store.Log(name, branchName)
		return err
	})
	if err != nil {
		return nil, err
	}
	return commits, nil
}

// CreateBranch creates a branch at HEAD under the repository lock.
func (s *service) CreateBranch(ctx context.Context, req *repoModel.CreateBranchRequest) (*vcs.Branch, error) {
	name, err := validateRepoName(req.RepoName)
	if err != nil {
		return nil, err
	}
	if err := validateBranchName(req.BranchName); err != nil {
		return nil, err
	}

	var branch vcs.Branch
	err = s.locker.WithLock(ctx, lock.RepoKey(name), func(context.Context) error {
		branch, err = s.store.CreateBranch(name, req.BranchName)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("branch created", "repo", name, "branch", branch.Name, "commit", branch.CommitID)
	return &branch, nil
}

// Branches lists branches of a repository.
func (s *service) Branches(_ context.Context, repoName string) ([]vcs.Branch, error) {
	name, err := validateRepoName(repoName)
	if err != nil {
		return nil, err
	}
	return s.store.Branches(name)
}

// Repositories lists all repositories.
func (s *service) Repositories(_ context.Context) ([]string, error) {
	names, err := s.store.List()
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	return names, err
}

// URL returns the clone URL of a repository.
func (s *service) URL(_ context.Context, repoName string) (*repoModel.URLResponse, error) {
	name, err := validateRepoName(repoName)
	if err != nil {
		return nil, err
	}
	url, err := s.store.URL(name)
	if err != nil {
		return nil, err
	}
	return &repoModel.URLResponse{RepoName: name, URL: url}, nil
}

// Files returns every file at the tip of a branch.
func (s *service) Files(_ context.Context, repoName, branchName string) ([]vcs.File, error) {
	name, err := validateRepoName(repoName)
	if err != nil {
		return nil, err
	}
	if err := validateBranchName(branchName); err != nil {
		return nil, err
	}
	return s.store.Files(name, branchName)
}
