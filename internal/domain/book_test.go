package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestID_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		in   string
		want ID
	}{
		{`42`, "42"},
		{`"42"`, "42"},
		{`"abc"`, "abc"},
		{`null`, ""},
	}
	for _, tt := range tests {
		var id ID
		if err := json.Unmarshal([]byte(tt.in), &id); err != nil {
			t.Fatalf("unmarshal %s: %v", tt.in, err)
		}
		if id != tt.want {
			t.Errorf("unmarshal %s = %q, want %q", tt.in, id, tt.want)
		}
	}
}

func TestID_MarshalJSON(t *testing.T) {
	out, _ := json.Marshal(ID("42"))
	if string(out) != "42" {
		t.Fatalf("expected numeric id, got %s", out)
	}
	out, _ = json.Marshal(ID("abc"))
	if string(out) != `"abc"` {
		t.Fatalf("expected string id, got %s", out)
	}
}

func TestBook_MergeKeepsIdentity(t *testing.T) {
	book := &Book{Title: "Local title", Author: "Someone"}
	holder := book

	book.Merge(&Book{ID: "7", Title: "Remote title", PermalinkURL: "https://readmill.com/books/7"})

	if holder.ID != "7" {
		t.Fatalf("expected holder to observe merged id, got %s", holder.ID)
	}
	if holder.Title != "Remote title" {
		t.Fatalf("expected remote title, got %s", holder.Title)
	}
	if holder.Author != "Someone" {
		t.Fatalf("expected author to be kept, got %s", holder.Author)
	}
	if !holder.Resolved() {
		t.Fatalf("expected book to be resolved")
	}

	book.Merge(nil)
	if book.ID != "7" {
		t.Fatalf("expected merge(nil) to be a no-op")
	}
}

func TestBook_UnmarshalRemote(t *testing.T) {
	var book Book
	body := `{"id":12,"title":"Dracula","author":"Bram Stoker","reading":{"id":3,"state":2,"highlights":"https://api.readmill.com/readings/3/highlights"}}`
	if err := json.Unmarshal([]byte(body), &book); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if book.ID != "12" {
		t.Fatalf("expected id 12, got %s", book.ID)
	}
	if book.Reading == nil || book.Reading.State != ReadingStateOpen {
		t.Fatalf("expected open reading, got %+v", book.Reading)
	}
}

func TestReadingState_String(t *testing.T) {
	if ReadingStateOpen.String() != "open" {
		t.Fatalf("expected open, got %s", ReadingStateOpen.String())
	}
	if ReadingState(9).String() != "unknown" {
		t.Fatalf("expected unknown for out-of-range state")
	}
}

func TestAccessToken_Expired(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	if (AccessToken{Token: "t"}).Expired(now) {
		t.Fatalf("expected token without expiry to never expire")
	}
	if !(AccessToken{Token: "t", Expiry: &past}).Expired(now) {
		t.Fatalf("expected past expiry to be expired")
	}
	if (AccessToken{Token: "t", Expiry: &future}).Expired(now) {
		t.Fatalf("expected future expiry to be valid")
	}
}
