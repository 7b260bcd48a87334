package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// ID is a remote resource identifier. The API sends numeric ids; strings are
// accepted as well so ids can come from configuration.
type ID string

// UnmarshalJSON accepts both JSON numbers and strings.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON writes numeric ids as numbers.
func (id ID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id ID) String() string { return string(id) }

// ReadingState is the state of a reading on the remote service.
type ReadingState int

const (
	ReadingStateInteresting ReadingState = 1
	ReadingStateOpen        ReadingState = 2
	ReadingStateFinished    ReadingState = 3
	ReadingStateAbandoned   ReadingState = 4
)

func (s ReadingState) String() string {
	switch s {
	case ReadingStateInteresting:
		return "interesting"
	case ReadingStateOpen:
		return "open"
	case ReadingStateFinished:
		return "finished"
	case ReadingStateAbandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

// Reading is a user's session reading a specific book.
type Reading struct {
	ID    ID           `json:"id"`
	State ReadingState `json:"state"`
	// HighlightsURL is the collection endpoint for this reading's highlights.
	HighlightsURL string `json:"highlights"`
	URI           string `json:"uri,omitempty"`
}

// Book identifies the document being read. ID stays empty until the book is
// matched remotely.
type Book struct {
	ID           ID       `json:"id,omitempty"`
	Title        string   `json:"title"`
	Author       string   `json:"author,omitempty"`
	ISBN         string   `json:"isbn,omitempty"`
	PermalinkURL string   `json:"permalink_url,omitempty"`
	CoverURL     string   `json:"cover_url,omitempty"`
	Reading      *Reading `json:"reading,omitempty"`
}

// Merge copies every non-empty field of other onto b. b keeps its identity so
// other holders of the pointer observe the update.
func (b *Book) Merge(other *Book) {
	if other == nil {
		return
	}
	if other.ID != "" {
		b.ID = other.ID
	}
	if other.Title != "" {
		b.Title = other.Title
	}
	if other.Author != "" {
		b.Author = other.Author
	}
	if other.ISBN != "" {
		b.ISBN = other.ISBN
	}
	if other.PermalinkURL != "" {
		b.PermalinkURL = other.PermalinkURL
	}
	if other.CoverURL != "" {
		b.CoverURL = other.CoverURL
	}
	if other.Reading != nil {
		b.Reading = other.Reading
	}
}

// Resolved reports whether the book has a remote id.
func (b *Book) Resolved() bool {
	return b.ID != ""
}
