package issues

// CreateIssueRequest is the JSON body for POST /issues.
type CreateIssueRequest struct {
	Title  string   `json:"title"`
	Body   string   `json:"body,omitempty"`
	Labels []string `json:"labels,omitempty"`
}

// UpdateIssueRequest is the JSON body for PATCH /issues/{number}.
// Nil fields are left unchanged upstream.
type UpdateIssueRequest struct {
	Title *string `json:"title,omitempty"`
	Body  *string `json:"body,omitempty"`
	State *string `json:"state,omitempty"`
}

// CommentRequest is the JSON body for POST /issues/{number}/comments.
type CommentRequest struct {
	Body string `json:"body"`
}

// ListQuery holds query parameters for GET /issues.
// GitHub's pagination semantics are preserved as-is.
type ListQuery struct {
	State   string
	Labels  []string
	Page    int
	PerPage int
}

// Issue is the normalized issue representation returned by the proxy.
type Issue struct {
	Number    int      `json:"number"`
	HTMLURL   string   `json:"html_url"`
	State     string   `json:"state"`
	Title     string   `json:"title"`
	Body      string   `json:"body"`
	Labels    []string `json:"labels"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
}

// Comment is the normalized comment representation returned by the proxy.
type Comment struct {
	ID        int64  `json:"id"`
	HTMLURL   string `json:"html_url"`
	Body      string `json:"body"`
	User      string `json:"user"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// ErrorResponse is the JSON response for proxy errors.
type ErrorResponse struct {
	Error string `json:"error"`
}

// List defaults mirror GitHub's own.
const (
	DefaultListState   = "open"
	DefaultListPage    = 1
	DefaultListPerPage = 30
	MaxListPerPage     = 100
)
