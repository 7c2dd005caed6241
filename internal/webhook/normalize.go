package webhook

// Normalized is the uniform record extracted from the varying shapes of
// issues and issue_comment payloads.
type Normalized struct {
	// Action is the payload's "action" field ("opened", "closed", "created", ...).
	// GitHub's action vocabulary evolves, so it is not validated against an enum.
	Action string

	// IssueNumber is nil when the payload carries no issue context.
	IssueNumber *int

	IssueTitle  string
	CommentBody string
	Actor       string
}

// normalize extracts a Normalized record from a decoded webhook payload.
// Every field degrades to a default when absent; it never fails.
//
// Issue number resolution, first match wins:
//  1. top-level "issue" object's "number"
//  2. "comment" object's nested "issue" object's "number"
//  3. absent
func normalize(payload map[string]any) Normalized {
	n := Normalized{
		Action: "unknown",
		Actor:  "unknown",
	}

	if action, ok := payload["action"].(string); ok && action != "" {
		n.Action = action
	}

	issue, _ := payload["issue"].(map[string]any)
	comment, _ := payload["comment"].(map[string]any)

	if issue != nil {
		n.IssueNumber = jsonInt(issue["number"])
		if title, ok := issue["title"].(string); ok {
			n.IssueTitle = title
		}
	} else if comment != nil {
		if nested, ok := comment["issue"].(map[string]any); ok {
			n.IssueNumber = jsonInt(nested["number"])
		}
	}

	if comment != nil {
		if body, ok := comment["body"].(string); ok {
			n.CommentBody = body
		}
	}

	if sender, ok := payload["sender"].(map[string]any); ok {
		if login, ok := sender["login"].(string); ok && login != "" {
			n.Actor = login
		}
	}

	return n
}

// jsonInt converts a decoded JSON number to *int. encoding/json delivers
// numbers as float64 when decoding into map[string]any.
func jsonInt(v any) *int {
	f, ok := v.(float64)
	if !ok {
		return nil
	}
	n := int(f)
	return &n
}
