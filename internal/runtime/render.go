package runtime

import (
	"regexp"
	"strings"

	"github.com/enderxdxd/botflow/pkg/domain"
)

// Placeholders are {key} where key names a captured session variable
// (an input node's id or its configured key).
var placeholderPattern = regexp.MustCompile(`\{([A-Za-z0-9_-]+)\}`)

// render substitutes session variables into a message template. Unknown
// placeholders are left intact so an editor typo shows up in the chat
// instead of silently rendering blank.
func (i *Interpreter) render(text string, sess *domain.Session) string {
	if sess == nil || len(sess.Variables) == 0 || !strings.Contains(text, "{") {
		return text
	}
	return placeholderPattern.ReplaceAllStringFunc(text, func(m string) string {
		key := m[1 : len(m)-1]
		if v, ok := sess.Variables[key]; ok {
			return v
		}
		return m
	})
}

// matchBranch resolves an inbound reply against a condition node's outgoing
// edges: first a trimmed case-insensitive exact match, then a prefix match so
// "1 - Vendas" still selects the edge labeled "1". Exact matches always win
// over prefix matches.
func matchBranch(input string, edges []domain.Edge) (target string, matched bool) {
	norm := strings.ToLower(strings.TrimSpace(input))
	if norm == "" {
		return "", false
	}

	for _, e := range edges {
		if norm == strings.ToLower(strings.TrimSpace(e.Label)) {
			return e.Target, true
		}
	}
	for _, e := range edges {
		label := strings.ToLower(strings.TrimSpace(e.Label))
		if label != "" && strings.HasPrefix(norm, label) {
			return e.Target, true
		}
	}
	return "", false
}
