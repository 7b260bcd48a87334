package domain

import "time"

// Highlight is a stored text selection on the remote service. Pre holds the
// serialized selection ranges of the local annotation.
type Highlight struct {
	ID            ID         `json:"id,omitempty"`
	URI           string     `json:"uri"`
	Content       string     `json:"content"`
	Pre           string     `json:"pre"`
	Post          string     `json:"post,omitempty"`
	CommentsURL   string     `json:"comments"`
	HighlightedAt *time.Time `json:"highlighted_at,omitempty"`
}

// HighlightInput is the highlight half of a creation request.
type HighlightInput struct {
	Pre           string     `json:"pre"`
	Content       string     `json:"content"`
	HighlightedAt *time.Time `json:"highlighted_at,omitempty"`
}

// Comment is the free-text note attached to a highlight.
type Comment struct {
	ID      ID     `json:"id,omitempty"`
	URI     string `json:"uri"`
	Content string `json:"content"`
}

// CommentInput is the body used to create or update a comment.
type CommentInput struct {
	Content string `json:"content"`
}
