package search

import (
	"regexp"
	"strings"
)

// Highlight wraps every match of q inside text in `**` markers for Markdown
// bold rendering. When highlighting is unavailable (regex fallback) the text
// is returned unchanged. Literal queries highlight each whitespace-separated
// term independently, case-insensitively.
func Highlight(q Query, text string) string {
	if !q.Highlight {
		return text
	}
	if q.Kind == KindRegex {
		return highlightPattern(q.Pattern, text)
	}

	out := text
	for _, term := range strings.Fields(q.Term) {
		re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(term))
		if err != nil {
			continue
		}
		out = highlightPattern(re, out)
	}
	return out
}

func highlightPattern(re *regexp.Regexp, text string) string {
	if re == nil {
		return text
	}
	return re.ReplaceAllStringFunc(text, func(m string) string {
		// An empty match would produce bare `****` noise.
		if m == "" {
			return m
		}
		return "**" + m + "**"
	})
}
