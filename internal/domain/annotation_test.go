package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestRanges_RoundTripStable(t *testing.T) {
	tests := []struct {
		name   string
		ranges Ranges
	}{
		{
			name:   "numeric offsets",
			ranges: Ranges{Range(`{"start":0,"end":5}`)},
		},
		{
			name: "xpath ranges",
			ranges: Ranges{
				Range(`{"start":"/p[1]","startOffset":3,"end":"/p[2]","endOffset":12}`),
				Range(`{"start":"/p[4]","startOffset":0,"end":"/p[4]","endOffset":1}`),
			},
		},
		{
			name:   "large and fractional numbers",
			ranges: Ranges{Range(`{"start":9007199254740993,"ratio":0.125}`)},
		},
		{
			name:   "empty selection",
			ranges: Ranges{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, err := SerializeRanges(tt.ranges)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			parsed, err := ParseRanges(first)
			if err != nil {
				t.Fatalf("expected no error parsing %s, got %v", first, err)
			}
			second, err := SerializeRanges(parsed)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if first != second {
				t.Fatalf("expected stable serialization, got %s then %s", first, second)
			}
		})
	}
}

func TestParseRanges_Malformed(t *testing.T) {
	inputs := []string{
		"",
		"not json",
		"null",
		"{}",
		`"text"`,
		"[1,2]",
		"[null]",
		`[{"start":0}] trailing`,
	}

	for _, in := range inputs {
		if _, err := ParseRanges(in); !errors.Is(err, ErrInvalidRanges) {
			t.Errorf("ParseRanges(%q) expected ErrInvalidRanges, got %v", in, err)
		}
	}
}

func TestRanges_KeepViewerKeyOrder(t *testing.T) {
	in := `[ {"start": 0, "end": 5}, {"startOffset":1.50,"start":"/p[2]"} ]`
	ranges, err := ParseRanges(in)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	got, err := SerializeRanges(ranges)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	want := `[{"start":0,"end":5},{"startOffset":1.50,"start":"/p[2]"}]`
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}

	var a Annotation
	if err := json.Unmarshal([]byte(`{"quote":"q","ranges":[{"start":0,"end":5}]}`), &a); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	pre, _ := SerializeRanges(a.Ranges)
	if pre != `[{"start":0,"end":5}]` {
		t.Fatalf("expected viewer order in pre, got %s", pre)
	}
}

func TestSerializeRanges_Nil(t *testing.T) {
	got, err := SerializeRanges(nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != "[]" {
		t.Fatalf("expected [], got %s", got)
	}
}

func TestAnnotation_JSON(t *testing.T) {
	var a Annotation
	body := `{"id":"local-1","quote":"hello","text":"note","ranges":[{"start":0,"end":5}]}`
	if err := json.Unmarshal([]byte(body), &a); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	quote, text, ranges := a.Content()
	if quote != "hello" || text != "note" {
		t.Fatalf("unexpected content %q %q", quote, text)
	}
	if len(ranges) != 1 {
		t.Fatalf("expected 1 range, got %d", len(ranges))
	}

	a.SetHighlight("https://api.example.com/highlights/1", "https://api.example.com/highlights/1/comments")
	out, err := json.Marshal(&a)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if decoded["highlightUrl"] != "https://api.example.com/highlights/1" {
		t.Fatalf("expected highlightUrl, got %v", decoded["highlightUrl"])
	}
	if _, ok := decoded["commentUrl"]; ok {
		t.Fatalf("expected empty commentUrl to be omitted")
	}
}

func TestAnnotation_UnmarshalRejectsBadRanges(t *testing.T) {
	var a Annotation
	if err := json.Unmarshal([]byte(`{"quote":"x","ranges":[1]}`), &a); err == nil {
		t.Fatalf("expected error for malformed ranges")
	}
}

func TestAnnotation_ApplyEdit(t *testing.T) {
	a := &Annotation{Quote: "hello", Text: "old", HighlightURL: "h1", CommentURL: "c1"}
	edit := &Annotation{Text: "new", HighlightURL: "other", CommentsURL: "cs1"}

	a.ApplyEdit(edit)

	if a.Text != "new" {
		t.Fatalf("expected text to change, got %s", a.Text)
	}
	if a.Quote != "hello" {
		t.Fatalf("expected quote to be kept, got %s", a.Quote)
	}
	if a.HighlightURL != "h1" {
		t.Fatalf("expected existing highlight url to win, got %s", a.HighlightURL)
	}
	if a.CommentsURL != "cs1" {
		t.Fatalf("expected comments url to be filled, got %s", a.CommentsURL)
	}
}
