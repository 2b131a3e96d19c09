package search

import (
	"errors"
	"testing"
)

func TestClassify_Literal(t *testing.T) {
	q, err := Classify("hello world")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if q.Kind != KindLiteral || q.Term != "hello world" || !q.Highlight {
		t.Fatalf("unexpected query: %+v", q)
	}
}

func TestClassify_Regex(t *testing.T) {
	q, err := Classify("/hel+o/")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if q.Kind != KindRegex || q.Term != "hel+o" || q.Pattern == nil || !q.Highlight {
		t.Fatalf("unexpected query: %+v", q)
	}
	if !q.Matches("Ohhh HELLLO there") {
		t.Fatal("regex must match case-insensitively")
	}
}

func TestClassify_BareSlashIsLiteral(t *testing.T) {
	for _, raw := range []string{"/abc", "abc/", "/", "//"} {
		q, err := Classify(raw)
		if err != nil {
			t.Fatalf("Classify(%q): %v", raw, err)
		}
		if q.Kind != KindLiteral {
			t.Errorf("Classify(%q).Kind = %v; want literal", raw, q.Kind)
		}
	}
}

func TestClassify_SingleRunePattern(t *testing.T) {
	// "/a/" is the shortest valid regex form.
	q, err := Classify("/a/")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if q.Kind != KindRegex || q.Term != "a" {
		t.Fatalf("unexpected query: %+v", q)
	}
}

func TestClassify_InvalidRegexFallsBack(t *testing.T) {
	q, err := Classify("/[invalid/")
	if err != nil {
		t.Fatalf("fallback must not error: %v", err)
	}
	if q.Kind != KindLiteral || q.Term != "[invalid" {
		t.Fatalf("unexpected fallback query: %+v", q)
	}
	if q.Highlight {
		t.Fatal("fallback queries must disable highlighting")
	}
	if !q.Matches("this is [INVALID syntax") {
		t.Fatal("fallback must match the inner text as a substring")
	}
}

func TestClassify_Empty(t *testing.T) {
	for _, raw := range []string{"", "   ", "\t\n"} {
		if _, err := Classify(raw); !errors.Is(err, ErrEmptyQuery) {
			t.Errorf("Classify(%q) err = %v; want ErrEmptyQuery", raw, err)
		}
	}
}

func TestMatches_LiteralCaseInsensitive(t *testing.T) {
	q, _ := Classify("Hello")
	if !q.Matches("well hello there") {
		t.Fatal("literal match must ignore case")
	}
	if q.Matches("goodbye") {
		t.Fatal("unexpected match")
	}
}
