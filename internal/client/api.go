package client

import (
	"context"
	"net/http"
	"net/url"

	"annotator-readmill/internal/domain"
	apperrors "annotator-readmill/pkg/errors"
)

var _ domain.RemoteClient = (*Client)(nil)

// Me fetches the profile of the authorized user.
func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	var user domain.User
	if err := c.getJSON(ctx, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetBook fetches a book by id.
func (c *Client) GetBook(ctx context.Context, id domain.ID) (*domain.Book, error) {
	var book domain.Book
	if err := c.getJSON(ctx, "/books/"+url.PathEscape(id.String()), nil, &book); err != nil {
		return nil, err
	}
	return &book, nil
}

// MatchBook finds the remote book best matching the local metadata.
func (c *Client) MatchBook(ctx context.Context, book *domain.Book) (*domain.Book, error) {
	q := url.Values{}
	if book.Title != "" {
		q.Set("q[title]", book.Title)
	}
	if book.Author != "" {
		q.Set("q[author]", book.Author)
	}
	if book.ISBN != "" {
		q.Set("q[isbn]", book.ISBN)
	}

	var matched domain.Book
	if err := c.getJSON(ctx, "/books/match", q, &matched); err != nil {
		return nil, err
	}
	return &matched, nil
}

// CreateBook registers a book the service does not know yet and returns its location.
func (c *Client) CreateBook(ctx context.Context, book *domain.Book) (string, error) {
	payload := map[string]interface{}{
		"book": map[string]string{
			"title":  book.Title,
			"author": book.Author,
			"isbn":   book.ISBN,
		},
	}
	return c.create(ctx, "/books", payload)
}

// CreateReadingForBook creates a reading and returns its location. When the
// reading already exists the location of the existing one is returned along
// with the conflict error.
func (c *Client) CreateReadingForBook(ctx context.Context, bookID domain.ID, state domain.ReadingState) (string, error) {
	payload := map[string]interface{}{
		"reading": map[string]interface{}{"state": state},
	}
	resp, err := c.Request(ctx, RequestSpec{
		URL:    "/books/" + url.PathEscape(bookID.String()) + "/readings",
		Method: http.MethodPost,
		Data:   payload,
	})
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeConflict) && resp != nil {
			return resp.Location(), err
		}
		return "", err
	}
	location := resp.Location()
	if location == "" {
		return "", domain.ErrMissingLocation
	}
	return location, nil
}

// GetReading fetches a reading by URL.
func (c *Client) GetReading(ctx context.Context, readingURL string) (*domain.Reading, error) {
	var reading domain.Reading
	if err := c.getJSON(ctx, readingURL, nil, &reading); err != nil {
		return nil, err
	}
	return &reading, nil
}

// GetHighlights fetches a reading's highlights collection.
func (c *Client) GetHighlights(ctx context.Context, highlightsURL string) ([]*domain.Highlight, error) {
	var highlights []*domain.Highlight
	if err := c.getJSON(ctx, highlightsURL, nil, &highlights); err != nil {
		return nil, err
	}
	return highlights, nil
}

// GetHighlight fetches a single highlight.
func (c *Client) GetHighlight(ctx context.Context, highlightURL string) (*domain.Highlight, error) {
	var highlight domain.Highlight
	if err := c.getJSON(ctx, highlightURL, nil, &highlight); err != nil {
		return nil, err
	}
	return &highlight, nil
}

// CreateHighlight posts a highlight with its initial comment and returns the
// highlight location.
func (c *Client) CreateHighlight(ctx context.Context, highlightsURL string, highlight domain.HighlightInput, comment domain.CommentInput) (string, error) {
	payload := map[string]interface{}{
		"highlight": highlight,
		"comment":   comment,
	}
	return c.create(ctx, highlightsURL, payload)
}

// DeleteHighlight removes a highlight.
func (c *Client) DeleteHighlight(ctx context.Context, highlightURL string) error {
	_, err := c.Request(ctx, RequestSpec{URL: highlightURL, Method: http.MethodDelete})
	return err
}

// GetComments fetches a highlight's comments collection.
func (c *Client) GetComments(ctx context.Context, commentsURL string) ([]*domain.Comment, error) {
	var comments []*domain.Comment
	if err := c.getJSON(ctx, commentsURL, nil, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// CreateComment adds a comment and returns its location.
func (c *Client) CreateComment(ctx context.Context, commentsURL string, comment domain.CommentInput) (string, error) {
	return c.create(ctx, commentsURL, map[string]interface{}{"comment": comment})
}

// UpdateComment replaces a comment's content.
func (c *Client) UpdateComment(ctx context.Context, commentURL string, comment domain.CommentInput) error {
	_, err := c.Request(ctx, RequestSpec{
		URL:    commentURL,
		Method: http.MethodPut,
		Data:   map[string]interface{}{"comment": comment},
	})
	return err
}
