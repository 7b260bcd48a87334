package service

import (
	"annotator-readmill/internal/domain"
	apperrors "annotator-readmill/pkg/errors"
)

// HighlightFromAnnotation builds the highlight half of a creation request. The
// selection ranges travel serialized in the pre field.
func HighlightFromAnnotation(a *domain.Annotation) (domain.HighlightInput, error) {
	quote, _, ranges := a.Content()
	pre, err := domain.SerializeRanges(ranges)
	if err != nil {
		return domain.HighlightInput{}, apperrors.NewInternalError("failed to serialize selection", err)
	}
	return domain.HighlightInput{Pre: pre, Content: quote}, nil
}

// CommentFromAnnotation builds the comment body for a's note.
func CommentFromAnnotation(a *domain.Annotation) domain.CommentInput {
	_, text, _ := a.Content()
	return domain.CommentInput{Content: text}
}

// AnnotationFromHighlight rebuilds a local annotation from a remote highlight.
// A highlight whose selection cannot be parsed yields a parse error.
func AnnotationFromHighlight(h *domain.Highlight) (*domain.Annotation, error) {
	ranges, err := domain.ParseRanges(h.Pre)
	if err != nil {
		return nil, apperrors.NewParseError("unreadable selection on highlight "+h.URI, err)
	}

	id := h.ID.String()
	if id == "" {
		id = h.URI
	}
	return &domain.Annotation{
		ID:           id,
		Quote:        h.Content,
		Ranges:       ranges,
		HighlightURL: h.URI,
		CommentsURL:  h.CommentsURL,
	}, nil
}

// applyFirstComment copies the first comment onto a. Only one comment per
// highlight is modelled.
func applyFirstComment(a *domain.Annotation, comments []*domain.Comment) {
	if len(comments) == 0 || comments[0] == nil {
		return
	}
	a.SetText(comments[0].Content)
	a.SetCommentURL(comments[0].URI)
}
