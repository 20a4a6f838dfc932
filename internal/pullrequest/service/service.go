// Package service provides business logic layer for pullrequest module.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/festy23/codeshelf/internal/config"
	"github.com/festy23/codeshelf/internal/conflict"
	"github.com/festy23/codeshelf/internal/lock"
	"github.com/festy23/codeshelf/internal/merge"
	pullrequestModel "github.com/festy23/codeshelf/internal/pullrequest/model"
	"github.com/festy23/codeshelf/internal/pullrequest/repository"
	"github.com/festy23/codeshelf/internal/vcs"
)

// Messages reported by Merge and Resolve.
const (
	MessageResolved = "Conflicts resolved and changes committed."
)

// Service defines the interface for pullrequest business logic operations.
type Service interface {
	// Create diffs the branches and persists an Open pull request.
	Create(ctx context.Context, req *pullrequestModel.CreatePullRequestRequest) (*pullrequestModel.CreatePullRequestResponse, error)

	// List returns every pull request with aggregate counters.
	List(ctx context.Context) (*pullrequestModel.ListPullRequestsResponse, error)

	// Get returns one pull request with its modified files.
	Get(ctx context.Context, id int64) (*pullrequestModel.PullRequest, error)

	// FileChanges diffs two branches without persisting anything.
	FileChanges(ctx context.Context, pair *pullrequestModel.BranchPair) ([]pullrequestModel.ModifiedFile, error)

	// Conflicts runs a trial merge and reports annotated conflicts.
	Conflicts(ctx context.Context, pair *pullrequestModel.BranchPair) (*pullrequestModel.ConflictsResponse, error)

	// Merge merges an Open pull request into its target branch.
	Merge(ctx context.Context, req *pullrequestModel.MergePullRequestRequest) (*pullrequestModel.MergePullRequestResponse, error)

	// Resolve commits resolved conflict content onto the target branch.
	Resolve(ctx context.Context, req *pullrequestModel.ResolveRequest) (*pullrequestModel.ResolveResponse, error)
}

// ConflictDetector performs trial merges.
type ConflictDetector interface {
	TryMerge(ctx context.Context, repoPath, source, target string) (*conflict.Outcome, error)
}

// Merger commits merges and resolutions.
type Merger interface {
	Merge(ctx context.Context, repoPath, source, target string) (*merge.Result, error)
	Resolve(ctx context.Context, repoPath, source, target string, files []merge.ResolvedFile) (string, error)
}

type service struct {
	repo     repository.Repository
	db       *gorm.DB
	store    *vcs.Store
	detector ConflictDetector
	merger   Merger
	locker   lock.Locker
	display  config.DisplayConfig
	now      func() time.Time
	logger   *zap.SugaredLogger
}

// New creates a new pullrequest service instance.
func New(
	repo repository.Repository,
	db *gorm.DB,
	store *vcs.Store,
	detector ConflictDetector,
	merger Merger,
	locker lock.Locker,
	display config.DisplayConfig,
	logger *zap.SugaredLogger,
) Service {
	return &service{
		repo:     repo,
		db:       db,
		store:    store,
		detector: detector,
		merger:   merger,
		locker:   locker,
		display:  display,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logger,
	}
}

// validatePair checks a repository and two distinct branch names.
func validatePair(pair *pullrequestModel.BranchPair) (string, error) {
	if strings.TrimSpace(pair.RepoName) == "" {
		return "", pullrequestModel.ErrInvalidRepoName
	}
	if pair.SourceBranch == "" || pair.TargetBranch == "" {
		return "", pullrequestModel.ErrInvalidBranchName
	}
	if pair.SourceBranch == pair.TargetBranch {
		return "", pullrequestModel.ErrSameBranch
	}
	for _, branch := range []string{pair.SourceBranch, pair.TargetBranch} {
		if err := vcs.ValidateBranchName(branch); err != nil {
			return "", fmt.Errorf("%w: %v", pullrequestModel.ErrInvalidBranchName, err)
		}
	}
	name, err := vcs.Normalize(pair.RepoName)
	if err != nil {
		return "", fmt.Errorf("%w: %v", pullrequestModel.ErrInvalidRepoName, err)
	}
	return name, nil
}

// Create validates the branches, diffs target against source and stores
// the pull request in two phases: insert, then patch the link derived from
// the assigned id. Both phases share one transaction.
func (s *service) Create(
	ctx context.Context,
	req *pullrequestModel.CreatePullRequestRequest,
) (*pullrequestModel.CreatePullRequestResponse, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, pullrequestModel.ErrInvalidTitle
	}
	pair := &pullrequestModel.BranchPair{
		RepoName:     req.RepoName,
		SourceBranch: req.SourceBranch,
		TargetBranch: req.TargetBranch,
	}
	name, err := validatePair(pair)
	if err != nil {
		return nil, err
	}

	diff, err := s.diff(ctx, name, req.SourceBranch, req.TargetBranch)
	if err != nil {
		return nil, err
	}
	commitCount, err := s.store.CommitCount(name, req.SourceBranch)
	if err != nil {
		return nil, err
	}

	now := s.now()
	pr := &pullrequestModel.PullRequest{
		Title:         req.Title,
		Description:   req.Description,
		AuthorName:    s.display.DefaultAuthor,
		RepoName:      name,
		SourceBranch:  req.SourceBranch,
		TargetBranch:  req.TargetBranch,
		Status:        pullrequestModel.StatusOpen,
		CreatedAt:     now,
		UpdatedAt:     now,
		ModifiedFiles: s.modifiedFiles(name, diff),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := repository.New(tx, s.logger)

		if err := txRepo.Create(ctx, pr); err != nil {
			return err
		}
		link := s.link(name, pr.ID)
		if err := txRepo.SetLink(ctx, pr.ID, link); err != nil {
			return err
		}
		pr.PullRequestLink = &link
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := &pullrequestModel.CreatePullRequestResponse{
		PullRequest:         pr,
		ConflictingFiles:    conflictingFiles(diff),
		CommitCount:         commitCount,
		OverallChangesCount: diff.ChangesCount(),
	}
	resp.Summary = Summary(resp)

	s.logger.Infow("pull request created",
		"pull_request_id", pr.ID,
		"repo", name,
		"source", pr.SourceBranch,
		"target", pr.TargetBranch,
		"files", len(pr.ModifiedFiles),
	)
	return resp, nil
}

func (s *service) diff(ctx context.Context, name, source, target string) (vcs.DiffRecord, error) {
	if _, err := s.store.Resolve(name, source); err != nil {
		return vcs.DiffRecord{}, err
	}
	if _, err := s.store.Resolve(name, target); err != nil {
		return vcs.DiffRecord{}, err
	}
	return s.store.Diff(ctx, name, source, target)
}

func (s *service) modifiedFiles(name string, diff vcs.DiffRecord) []pullrequestModel.ModifiedFile {
	files := make([]pullrequestModel.ModifiedFile, 0, len(diff.Entries))
	for _, e := range diff.Entries {
		files = append(files, pullrequestModel.ModifiedFile{
			FileName: e.Path,
			Changes:  e.Rendered,
			FileURL:  vcs.DisplayLocator(s.display.ProjectLabel, name, e.Path),
		})
	}
	return files
}

func (s *service) link(name string, id int64) string {
	return fmt.Sprintf("%s/%s/%s/pull_request/%d", s.display.PublicBaseURL, s.display.ProjectLabel, name, id)
}

// conflictingFiles lists modified and deleted paths.
func conflictingFiles(diff vcs.DiffRecord) []string {
	files := []string{}
	for _, e := range diff.Entries {
		if e.ChangeType == vcs.ChangeModify || e.ChangeType == vcs.ChangeDelete {
			files = append(files, e.Path)
		}
	}
	return files
}

// Summary renders the creation report as plain text.
func Summary(resp *pullrequestModel.CreatePullRequestResponse) string {
	pr := resp.PullRequest
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", pr.Title)
	fmt.Fprintf(&b, "Description: %s\n", pr.Description)
	fmt.Fprintf(&b, "Source Branch: %s\n", pr.SourceBranch)
	fmt.Fprintf(&b, "Target Branch: %s\n\n", pr.TargetBranch)

	if len(resp.ConflictingFiles) > 0 {
		b.WriteString("Conflicting files:\n")
		for _, f := range resp.ConflictingFiles {
			fmt.Fprintf(&b, "--%s\n\n", f)
		}
	} else {
		b.WriteString("No conflict in files - Ready to merge\n")
	}

	b.WriteString("Modified file links:\n")
	for _, f := range pr.ModifiedFiles {
		b.WriteString(f.FileURL + "\n")
	}
	b.WriteString("\n--------------- \n")
	fmt.Fprintf(&b, "Number of commits in source branch: %d\n", resp.CommitCount)
	fmt.Fprintf(&b, "Overall file changes count: %d\n", resp.OverallChangesCount)
	return b.String()
}

// FormatAge renders an age as "<d> days <h> hours" or "<h> hours".
func FormatAge(age time.Duration) string {
	hours := int64(age / time.Hour)
	if hours < 0 {
		hours = 0
	}
	if days := hours / 24; days > 0 {
		return fmt.Sprintf("%d days %d hours", days, hours%24)
	}
	return fmt.Sprintf("%d hours", hours)
}

// List returns every pull request with aggregate counters.
func (s *service) List(ctx context.Context) (*pullrequestModel.ListPullRequestsResponse, error) {
	prs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	withLink, err := s.repo.CountWithLink(ctx)
	if err != nil {
		return nil, err
	}
	open, err := s.repo.CountByStatus(ctx, pullrequestModel.StatusOpen)
	if err != nil {
		return nil, err
	}
	closed, err := s.repo.CountByStatus(ctx, pullrequestModel.StatusClosed)
	if err != nil {
		return nil, err
	}

	now := s.now()
	summaries := make([]pullrequestModel.PullRequestSummary, 0, len(prs))
	for _, pr := range prs {
		var link string
		if pr.PullRequestLink != nil {
			link = *pr.PullRequestLink
		}
		summaries = append(summaries, pullrequestModel.PullRequestSummary{
			ID:              pr.ID,
			PullRequestLink: link,
			Title:           pr.Title,
			AuthorName:      pr.AuthorName,
			RepoName:        pr.RepoName,
			SourceBranch:    pr.SourceBranch,
			TargetBranch:    pr.TargetBranch,
			Status:          pr.Status,
			CreatedHours:    FormatAge(now.Sub(pr.CreatedAt)),
		})
	}

	return &pullrequestModel.ListPullRequestsResponse{
		PullRequests:       summaries,
		OverallPRCount:     withLink,
		OverallOpenCount:   open,
		OverallClosedCount: closed,
	}, nil
}

// Get returns one pull request with its modified files.
func (s *service) Get(ctx context.Context, id int64) (*pullrequestModel.PullRequest, error) {
	if id <= 0 {
		return nil, pullrequestModel.ErrInvalidPullRequestID
	}
	return s.repo.GetByID(ctx, id)
}

// FileChanges diffs two branches without persisting anything.
func (s *service) FileChanges(ctx context.Context, pair *pullrequestModel.BranchPair) ([]pullrequestModel.ModifiedFile, error) {
	name, err := validatePair(pair)
	if err != nil {
		return nil, err
	}
	diff, err := s.diff(ctx, name, pair.SourceBranch, pair.TargetBranch)
	if err != nil {
		return nil, err
	}
	return s.modifiedFiles(name, diff), nil
}

// Conflicts runs a trial merge of source into target. It takes no lock:
// the bare repository is only read.
func (s *service) Conflicts(ctx context.Context, pair *pullrequestModel.BranchPair) (*pullrequestModel.ConflictsResponse, error) {
	name, err := validatePair(pair)
	if err != nil {
		return nil, err
	}
	path, err := s.store.Locate(name)
	if err != nil {
		return nil, err
	}

	outcome, err := s.detector.TryMerge(ctx, path, pair.SourceBranch, pair.TargetBranch)
	if err != nil {
		return nil, err
	}

	records := outcome.Records
	if records == nil {
		records = []conflict.Record{}
	}
	return &pullrequestModel.ConflictsResponse{
		Message:       outcome.Message,
		Status:        string(outcome.Status),
		ConflictFiles: records,
	}, nil
}

// Merge merges an Open pull request under the repository lock. A merge
// stopping on conflicts leaves the pull request Open and pushes nothing.
func (s *service) Merge(
	ctx context.Context,
	req *pullrequestModel.MergePullRequestRequest,
) (*pullrequestModel.MergePullRequestResponse, error) {
	pr, err := s.Get(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if pr.IsMerged() {
		return nil, fmt.Errorf("%w: %d", pullrequestModel.ErrPullRequestMerged, pr.ID)
	}

	var resp *pullrequestModel.MergePullRequestResponse
	err = s.locker.WithLock(ctx, lock.RepoKey(pr.RepoName), func(ctx context.Context) error {
		// once the push happens the status update must follow, client or not
		ctx = context.WithoutCancel(ctx)

		// another merge may have finished while we waited for the lock
		pr, err = s.repo.GetByID(ctx, req.ID)
		if err != nil {
			return err
		}
		if pr.IsMerged() {
			return fmt.Errorf("%w: %d", pullrequestModel.ErrPullRequestMerged, pr.ID)
		}

		path, err := s.store.Locate(pr.RepoName)
		if err != nil {
			return err
		}
		result, err := s.merger.Merge(ctx, path, pr.SourceBranch, pr.TargetBranch)
		if err != nil {
			return err
		}

		resp = &pullrequestModel.MergePullRequestResponse{
			ID:           pr.ID,
			Merged:       result.Merged,
			Status:       pr.Status,
			CommitID:     result.CommitID,
			SourceBranch: pr.SourceBranch,
			TargetBranch: pr.TargetBranch,
			Conflicts:    result.Conflicts,
		}
		if !result.Merged {
			resp.Message = "Merge failed: " + string(result.Status)
			return nil
		}

		updatedAt := s.now()
		if err := s.repo.UpdateStatus(ctx, pr.ID, pullrequestModel.StatusMerged, updatedAt); err != nil {
			return err
		}
		resp.Status = pullrequestModel.StatusMerged
		resp.UpdatedAt = &updatedAt
		resp.Message = fmt.Sprintf("Merge successful: Branch %s to %s, Commit ID %s",
			pr.SourceBranch, pr.TargetBranch, result.CommitID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("pull request merge finished",
		"pull_request_id", resp.ID,
		"repo", pr.RepoName,
		"merged", resp.Merged,
		"conflicts", len(resp.Conflicts),
	)
	return resp, nil
}

// Resolve commits resolved conflict content onto the target branch under
// the repository lock. Pull request status is left untouched.
func (s *service) Resolve(ctx context.Context, req *pullrequestModel.ResolveRequest) (*pullrequestModel.ResolveResponse, error) {
	name, err := validatePair(&req.BranchPair)
	if err != nil {
		return nil, err
	}

	var commitID string
	err = s.locker.WithLock(ctx, lock.RepoKey(name), func(ctx context.Context) error {
		ctx = context.WithoutCancel(ctx)
		path, err := s.store.Locate(name)
		if err != nil {
			return err
		}
		commitID, err = s.merger.Resolve(ctx, path, req.SourceBranch, req.TargetBranch, req.ResolvedFiles)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &pullrequestModel.ResolveResponse{
		Message:  MessageResolved,
		CommitID: commitID,
	}, nil
}
