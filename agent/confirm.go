package agent

import "strings"

// affirmations is the closed allowlist of user replies accepted as
// explicit confirmation. Matching is case-insensitive on the trimmed
// message, with trailing punctuation ignored.
var affirmations = map[string]bool{
	"yes":         true,
	"y":           true,
	"yes please":  true,
	"yes, submit": true,
	"yep":         true,
	"yeah":        true,
	"sure":        true,
	"ok":          true,
	"okay":        true,
	"confirm":     true,
	"confirmed":   true,
	"submit":      true,
	"submit it":   true,
	"send":        true,
	"send it":     true,
	"go ahead":    true,
	"do it":       true,
	"please do":   true,
	"sounds good": true,
}

// isAffirmation reports whether a user message counts as explicit
// confirmation. Anything outside the allowlist, including long replies
// that merely contain an affirmative word, is not a confirmation.
func isAffirmation(message string) bool {
	normalized := strings.ToLower(strings.TrimSpace(message))
	normalized = strings.TrimRight(normalized, ".!")
	return affirmations[normalized]
}
