// Package search implements query classification, matching, and match
// highlighting for the message search feature.
//
// A query is either a literal substring query or a regular-expression query.
// Regex form is `/pattern/` with a non-empty pattern between the slashes;
// anything else, including a bare leading slash, is literal. Classification
// never fails: a regex that does not compile silently degrades to a literal
// search for the inner pattern text, with highlighting disabled, so a typo
// in a pattern still returns something useful instead of an error.
package search

import (
	"errors"
	"regexp"
	"strings"
)

// ErrEmptyQuery is returned by Classify for queries that are empty or
// whitespace-only.
var ErrEmptyQuery = errors.New("search: empty query")

// Kind discriminates the two query forms.
type Kind int

const (
	// KindLiteral matches the query as a case-insensitive substring.
	KindLiteral Kind = iota
	// KindRegex matches the query as a case-insensitive regular expression.
	KindRegex
)

// Query is a classified, ready-to-evaluate search query.
type Query struct {
	// Kind tells the storage layer which retrieval strategy to use.
	Kind Kind
	// Term is the effective search text: the raw query for literal queries,
	// or the inner pattern for regex queries (compiled or fallen back).
	Term string
	// Pattern is the compiled expression for KindRegex, nil otherwise.
	Pattern *regexp.Regexp
	// Highlight reports whether match highlighting is available. It is false
	// only for regex queries that failed to compile and fell back to a
	// literal scan.
	Highlight bool
}

// Classify parses a raw user query into a Query.
//
// Behavior:
//   - empty or whitespace-only input returns ErrEmptyQuery
//   - `/pattern/` with at least one rune between the slashes is compiled
//     case-insensitively as a regex
//   - a pattern that fails to compile degrades to a literal query over the
//     inner text, with Highlight disabled
//   - everything else is a literal query
func Classify(raw string) (Query, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Query{}, ErrEmptyQuery
	}

	if len(raw) > 2 && strings.HasPrefix(raw, "/") && strings.HasSuffix(raw, "/") {
		inner := raw[1 : len(raw)-1]
		re, err := regexp.Compile("(?i)" + inner)
		if err != nil {
			// Unusable pattern. Fall back to treating the inner text as a
			// plain substring so the search still executes.
			return Query{Kind: KindLiteral, Term: inner}, nil
		}
		return Query{Kind: KindRegex, Term: inner, Pattern: re, Highlight: true}, nil
	}

	return Query{Kind: KindLiteral, Term: raw, Highlight: true}, nil
}

// Matches reports whether text satisfies the query. The storage layer already
// filters literal queries in SQL; this is used for the in-process regex scan
// and in tests.
func (q Query) Matches(text string) bool {
	if q.Kind == KindRegex && q.Pattern != nil {
		return q.Pattern.MatchString(text)
	}
	return strings.Contains(strings.ToLower(text), strings.ToLower(q.Term))
}
