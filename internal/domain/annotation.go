package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"
)

// Range is one opaque serialized selection descriptor produced by the viewer.
// It holds the compact JSON object as received, so key order and number
// literals survive re-serialization.
type Range json.RawMessage

// MarshalJSON writes the range as received.
func (r Range) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return r, nil
}

// UnmarshalJSON keeps a compact copy of data.
func (r *Range) UnmarshalJSON(data []byte) error {
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return err
	}
	*r = buf.Bytes()
	return nil
}

// Ranges is the selection of an annotation.
type Ranges []Range

// SerializeRanges encodes ranges for the highlight pre field.
func SerializeRanges(r Ranges) (string, error) {
	if r == nil {
		r = Ranges{}
	}
	data, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("serialize ranges: %w", err)
	}
	return string(data), nil
}

// ParseRanges decodes a serialized selection. The payload must be a JSON array
// of objects.
func ParseRanges(s string) (Ranges, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))

	var raw []json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRanges, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: null selection", ErrInvalidRanges)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data", ErrInvalidRanges)
	}

	out := make(Ranges, 0, len(raw))
	for i, item := range raw {
		item = bytes.TrimSpace(item)
		if len(item) == 0 || item[0] != '{' {
			return nil, fmt.Errorf("%w: range %d is not an object", ErrInvalidRanges, i)
		}
		var r Range
		if err := r.UnmarshalJSON(item); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRanges, err)
		}
		out = append(out, r)
	}
	return out, nil
}

// Annotation is a local annotation owned by the viewer. The sync service keeps
// a pointer to it and records remote locations on it as they become known.
type Annotation struct {
	mu sync.RWMutex

	ID     string
	Quote  string
	Text   string
	Ranges Ranges

	// HighlightURL is set once a remote highlight exists.
	HighlightURL string
	// CommentURL is set once a remote comment exists.
	CommentURL string
	// CommentsURL is the collection used to create the comment when absent.
	CommentsURL string
}

type annotationJSON struct {
	ID           string          `json:"id,omitempty"`
	Quote        string          `json:"quote"`
	Text         string          `json:"text"`
	Ranges       json.RawMessage `json:"ranges"`
	HighlightURL string          `json:"highlightUrl,omitempty"`
	CommentURL   string          `json:"commentUrl,omitempty"`
	CommentsURL  string          `json:"commentsUrl,omitempty"`
}

// MarshalJSON encodes a consistent snapshot of the annotation.
func (a *Annotation) MarshalJSON() ([]byte, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	ranges, err := SerializeRanges(a.Ranges)
	if err != nil {
		return nil, err
	}
	return json.Marshal(annotationJSON{
		ID:           a.ID,
		Quote:        a.Quote,
		Text:         a.Text,
		Ranges:       json.RawMessage(ranges),
		HighlightURL: a.HighlightURL,
		CommentURL:   a.CommentURL,
		CommentsURL:  a.CommentsURL,
	})
}

// UnmarshalJSON decodes an annotation sent by the viewer.
func (a *Annotation) UnmarshalJSON(data []byte) error {
	var in annotationJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	var ranges Ranges
	if len(in.Ranges) > 0 && !bytes.Equal(bytes.TrimSpace(in.Ranges), []byte("null")) {
		r, err := ParseRanges(string(in.Ranges))
		if err != nil {
			return err
		}
		ranges = r
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.ID = in.ID
	a.Quote = in.Quote
	a.Text = in.Text
	a.Ranges = ranges
	a.HighlightURL = in.HighlightURL
	a.CommentURL = in.CommentURL
	a.CommentsURL = in.CommentsURL
	return nil
}

// Content returns the user-editable fields.
func (a *Annotation) Content() (quote, text string, ranges Ranges) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.Quote, a.Text, a.Ranges
}

// RemoteURLs returns the remote locations recorded so far.
func (a *Annotation) RemoteURLs() (highlightURL, commentURL, commentsURL string) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.HighlightURL, a.CommentURL, a.CommentsURL
}

// SetHighlight records the remote highlight and its comments collection.
func (a *Annotation) SetHighlight(highlightURL, commentsURL string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.HighlightURL = highlightURL
	a.CommentsURL = commentsURL
}

// SetCommentURL records the remote comment.
func (a *Annotation) SetCommentURL(commentURL string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.CommentURL = commentURL
}

// SetText replaces the comment text.
func (a *Annotation) SetText(text string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Text = text
}

// ApplyEdit copies the user-editable fields of edit onto a. Remote locations
// are only taken from edit when a has none yet.
func (a *Annotation) ApplyEdit(edit *Annotation) {
	quote, text, ranges := edit.Content()
	highlightURL, commentURL, commentsURL := edit.RemoteURLs()

	a.mu.Lock()
	defer a.mu.Unlock()
	a.Text = text
	if quote != "" {
		a.Quote = quote
	}
	if ranges != nil {
		a.Ranges = ranges
	}
	if a.HighlightURL == "" {
		a.HighlightURL = highlightURL
	}
	if a.CommentURL == "" {
		a.CommentURL = commentURL
	}
	if a.CommentsURL == "" {
		a.CommentsURL = commentsURL
	}
}
