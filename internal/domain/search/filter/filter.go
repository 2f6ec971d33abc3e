package filter

import (
	"fmt"
	"strings"
)

// Filter is an optional structured constraint applied before ranking.
// Currently a single title equality; compiling joins all set conditions with &&.
type Filter struct {
	title string
}

// New creates a filter. An empty title yields an empty filter.
func New(title string) Filter {
	return Filter{title: title}
}

// Title returns the title equality value.
func (f Filter) Title() string { return f.title }

// IsEmpty reports whether the filter carries no conditions.
func (f Filter) IsEmpty() bool { return f.title == "" }

// Compile renders the filter as a backend boolean expression.
// Returns ok=false when the filter is empty, so callers can omit the
// filter clause entirely. Values are escaped before interpolation.
func (f Filter) Compile() (expr string, ok bool) {
	var conditions []string
	if f.title != "" {
		conditions = append(conditions, fmt.Sprintf(`title == "%s"`, escapeDoubleQuoted(f.title)))
	}
	if len(conditions) == 0 {
		return "", false
	}
	return strings.Join(conditions, " && "), true
}

// EscapePhrase escapes a literal for embedding inside a single-quoted
// phrase predicate. Backslashes are escaped first so the quote escape
// cannot itself be escaped away.
func EscapePhrase(s string) string {
	return phraseEscaper.Replace(s)
}

var phraseEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
)

func escapeDoubleQuoted(s string) string {
	return valueEscaper.Replace(s)
}

var valueEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
)
