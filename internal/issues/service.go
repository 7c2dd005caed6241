package issues

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/go-github/v68/github"
)

// githubIssues is the slice of go-github's IssuesService the proxy uses.
type githubIssues interface {
	Create(ctx context.Context, owner, repo string, issue *github.IssueRequest) (*github.Issue, *github.Response, error)
	ListByRepo(ctx context.Context, owner, repo string, opts *github.IssueListByRepoOptions) ([]*github.Issue, *github.Response, error)
	Get(ctx context.Context, owner, repo string, number int) (*github.Issue, *github.Response, error)
	Edit(ctx context.Context, owner, repo string, number int, issue *github.IssueRequest) (*github.Issue, *github.Response, error)
	CreateComment(ctx context.Context, owner, repo string, number int, comment *github.IssueComment) (*github.IssueComment, *github.Response, error)
}

// UpstreamError carries the status GitHub responded with, so the proxy can
// pass it through instead of collapsing everything into a 500.
type UpstreamError struct {
	StatusCode int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("github api returned status %d", e.StatusCode)
}

// Service translates proxy calls into GitHub Issues API calls and returns
// normalized representations. It holds no state shared with the webhook core.
type Service struct {
	api   githubIssues
	owner string
	repo  string
}

// NewService builds a Service talking to api.github.com for owner/repo.
func NewService(token, owner, repo string) *Service {
	client := github.NewClient(nil)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	return &Service{
		api:   client.Issues,
		owner: owner,
		repo:  repo,
	}
}

// Create opens a new issue. Title must be non-empty (validated by the handler).
func (s *Service) Create(ctx context.Context, req CreateIssueRequest) (*Issue, error) {
	ir := &github.IssueRequest{
		Title: github.Ptr(req.Title),
	}
	if req.Body != "" {
		ir.Body = github.Ptr(req.Body)
	}
	if req.Labels != nil {
		ir.Labels = &req.Labels
	}

	created, _, err := s.api.Create(ctx, s.owner, s.repo, ir)
	if err != nil {
		return nil, upstreamErr(err)
	}
	issue := issueFromGitHub(created)
	return &issue, nil
}

// List returns issues filtered by state/labels with GitHub pagination.
func (s *Service) List(ctx context.Context, q ListQuery) ([]Issue, error) {
	opts := &github.IssueListByRepoOptions{
		State:  q.State,
		Labels: q.Labels,
		ListOptions: github.ListOptions{
			Page:    q.Page,
			PerPage: q.PerPage,
		},
	}

	found, _, err := s.api.ListByRepo(ctx, s.owner, s.repo, opts)
	if err != nil {
		return nil, upstreamErr(err)
	}

	result := make([]Issue, 0, len(found))
	for _, gi := range found {
		result = append(result, issueFromGitHub(gi))
	}
	return result, nil
}

// Get fetches a single issue by number.
func (s *Service) Get(ctx context.Context, number int) (*Issue, error) {
	gi, _, err := s.api.Get(ctx, s.owner, s.repo, number)
	if err != nil {
		return nil, upstreamErr(err)
	}
	issue := issueFromGitHub(gi)
	return &issue, nil
}

// Update patches title/body/state of an existing issue.
func (s *Service) Update(ctx context.Context, number int, req UpdateIssueRequest) (*Issue, error) {
	ir := &github.IssueRequest{
		Title: req.Title,
		Body:  req.Body,
		State: req.State,
	}

	updated, _, err := s.api.Edit(ctx, s.owner, s.repo, number, ir)
	if err != nil {
		return nil, upstreamErr(err)
	}
	issue := issueFromGitHub(updated)
	return &issue, nil
}

// Comment adds a comment to an issue.
func (s *Service) Comment(ctx context.Context, number int, body string) (*Comment, error) {
	created, _, err := s.api.CreateComment(ctx, s.owner, s.repo, number, &github.IssueComment{
		Body: github.Ptr(body),
	})
	if err != nil {
		return nil, upstreamErr(err)
	}
	comment := commentFromGitHub(created)
	return &comment, nil
}

// upstreamErr converts go-github errors carrying an HTTP response into
// UpstreamError; anything else (network, timeout) passes through unchanged.
func upstreamErr(err error) error {
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return &UpstreamError{StatusCode: ghErr.Response.StatusCode}
	}
	return err
}

func issueFromGitHub(gi *github.Issue) Issue {
	labels := make([]string, 0, len(gi.Labels))
	for _, l := range gi.Labels {
		labels = append(labels, l.GetName())
	}
	return Issue{
		Number:    gi.GetNumber(),
		HTMLURL:   gi.GetHTMLURL(),
		State:     gi.GetState(),
		Title:     gi.GetTitle(),
		Body:      gi.GetBody(),
		Labels:    labels,
		CreatedAt: gi.GetCreatedAt().Format(time.RFC3339),
		UpdatedAt: gi.GetUpdatedAt().Format(time.RFC3339),
	}
}

func commentFromGitHub(gc *github.IssueComment) Comment {
	return Comment{
		ID:        gc.GetID(),
		HTMLURL:   gc.GetHTMLURL(),
		Body:      gc.GetBody(),
		User:      gc.GetUser().GetLogin(),
		CreatedAt: gc.GetCreatedAt().Format(time.RFC3339),
		UpdatedAt: gc.GetUpdatedAt().Format(time.RFC3339),
	}
}
