package issues

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/go-github/v68/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGitHub is a fake implementation of the go-github issues surface.
type fakeGitHub struct {
	createFn        func(ctx context.Context, owner, repo string, issue *github.IssueRequest) (*github.Issue, *github.Response, error)
	listByRepoFn    func(ctx context.Context, owner, repo string, opts *github.IssueListByRepoOptions) ([]*github.Issue, *github.Response, error)
	getFn           func(ctx context.Context, owner, repo string, number int) (*github.Issue, *github.Response, error)
	editFn          func(ctx context.Context, owner, repo string, number int, issue *github.IssueRequest) (*github.Issue, *github.Response, error)
	createCommentFn func(ctx context.Context, owner, repo string, number int, comment *github.IssueComment) (*github.IssueComment, *github.Response, error)
}

func (f *fakeGitHub) Create(ctx context.Context, owner, repo string, issue *github.IssueRequest) (*github.Issue, *github.Response, error) {
	return f.createFn(ctx, owner, repo, issue)
}

func (f *fakeGitHub) ListByRepo(ctx context.Context, owner, repo string, opts *github.IssueListByRepoOptions) ([]*github.Issue, *github.Response, error) {
	return f.listByRepoFn(ctx, owner, repo, opts)
}

func (f *fakeGitHub) Get(ctx context.Context, owner, repo string, number int) (*github.Issue, *github.Response, error) {
	return f.getFn(ctx, owner, repo, number)
}

func (f *fakeGitHub) Edit(ctx context.Context, owner, repo string, number int, issue *github.IssueRequest) (*github.Issue, *github.Response, error) {
	return f.editFn(ctx, owner, repo, number, issue)
}

func (f *fakeGitHub) CreateComment(ctx context.Context, owner, repo string, number int, comment *github.IssueComment) (*github.IssueComment, *github.Response, error) {
	return f.createCommentFn(ctx, owner, repo, number, comment)
}

func newTestService(api githubIssues) *Service {
	return &Service{api: api, owner: "octo", repo: "proj"}
}

func ghIssue() *github.Issue {
	created := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	return &github.Issue{
		Number:  github.Ptr(42),
		HTMLURL: github.Ptr("https://github.com/octo/proj/issues/42"),
		State:   github.Ptr("open"),
		Title:   github.Ptr("Bug"),
		Body:    github.Ptr("it breaks"),
		Labels: []*github.Label{
			{Name: github.Ptr("bug")},
			{Name: github.Ptr("p1")},
		},
		CreatedAt: &github.Timestamp{Time: created},
		UpdatedAt: &github.Timestamp{Time: created},
	}
}

func TestServiceCreateMapsRequestAndResponse(t *testing.T) {
	t.Parallel()
	api := &fakeGitHub{
		createFn: func(ctx context.Context, owner, repo string, issue *github.IssueRequest) (*github.Issue, *github.Response, error) {
			assert.Equal(t, "octo", owner)
			assert.Equal(t, "proj", repo)
			assert.Equal(t, "Bug", issue.GetTitle())
			assert.Equal(t, "it breaks", issue.GetBody())
			require.NotNil(t, issue.Labels)
			assert.Equal(t, []string{"bug"}, *issue.Labels)
			return ghIssue(), nil, nil
		},
	}

	issue, err := newTestService(api).Create(context.Background(), CreateIssueRequest{
		Title:  "Bug",
		Body:   "it breaks",
		Labels: []string{"bug"},
	})
	require.NoError(t, err)

	assert.Equal(t, 42, issue.Number)
	assert.Equal(t, "https://github.com/octo/proj/issues/42", issue.HTMLURL)
	assert.Equal(t, []string{"bug", "p1"}, issue.Labels)
	assert.Equal(t, "2026-02-01T10:00:00Z", issue.CreatedAt)
}

func TestServiceCreateOmitsEmptyOptionals(t *testing.T) {
	t.Parallel()
	api := &fakeGitHub{
		createFn: func(ctx context.Context, owner, repo string, issue *github.IssueRequest) (*github.Issue, *github.Response, error) {
			assert.Nil(t, issue.Body)
			assert.Nil(t, issue.Labels)
			return ghIssue(), nil, nil
		},
	}

	_, err := newTestService(api).Create(context.Background(), CreateIssueRequest{Title: "Bug"})
	require.NoError(t, err)
}

func TestServiceListPassesOptions(t *testing.T) {
	t.Parallel()
	api := &fakeGitHub{
		listByRepoFn: func(ctx context.Context, owner, repo string, opts *github.IssueListByRepoOptions) ([]*github.Issue, *github.Response, error) {
			assert.Equal(t, "closed", opts.State)
			assert.Equal(t, []string{"bug"}, opts.Labels)
			assert.Equal(t, 2, opts.Page)
			assert.Equal(t, 10, opts.PerPage)
			return []*github.Issue{ghIssue()}, nil, nil
		},
	}

	found, err := newTestService(api).List(context.Background(), ListQuery{
		State:   "closed",
		Labels:  []string{"bug"},
		Page:    2,
		PerPage: 10,
	})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, 42, found[0].Number)
}

func TestServiceUpdateSendsOnlySetFields(t *testing.T) {
	t.Parallel()
	api := &fakeGitHub{
		editFn: func(ctx context.Context, owner, repo string, number int, issue *github.IssueRequest) (*github.Issue, *github.Response, error) {
			assert.Equal(t, 42, number)
			assert.Nil(t, issue.Title)
			assert.Nil(t, issue.Body)
			assert.Equal(t, "closed", issue.GetState())
			return ghIssue(), nil, nil
		},
	}

	state := "closed"
	_, err := newTestService(api).Update(context.Background(), 42, UpdateIssueRequest{State: &state})
	require.NoError(t, err)
}

func TestServiceCommentMapsResponse(t *testing.T) {
	t.Parallel()
	api := &fakeGitHub{
		createCommentFn: func(ctx context.Context, owner, repo string, number int, comment *github.IssueComment) (*github.IssueComment, *github.Response, error) {
			assert.Equal(t, 7, number)
			assert.Equal(t, "lgtm", comment.GetBody())
			return &github.IssueComment{
				ID:      github.Ptr(int64(100)),
				HTMLURL: github.Ptr("https://github.com/octo/proj/issues/7#issuecomment-100"),
				Body:    github.Ptr("lgtm"),
				User:    &github.User{Login: github.Ptr("alice")},
			}, nil, nil
		},
	}

	comment, err := newTestService(api).Comment(context.Background(), 7, "lgtm")
	require.NoError(t, err)
	assert.Equal(t, int64(100), comment.ID)
	assert.Equal(t, "alice", comment.User)
}

func TestServiceWrapsUpstreamStatus(t *testing.T) {
	t.Parallel()
	api := &fakeGitHub{
		getFn: func(ctx context.Context, owner, repo string, number int) (*github.Issue, *github.Response, error) {
			return nil, nil, &github.ErrorResponse{
				Response: &http.Response{StatusCode: http.StatusNotFound},
			}
		},
	}

	_, err := newTestService(api).Get(context.Background(), 999)
	require.Error(t, err)

	ue, ok := err.(*UpstreamError)
	require.True(t, ok, "expected *UpstreamError, got %T", err)
	assert.Equal(t, http.StatusNotFound, ue.StatusCode)
}
