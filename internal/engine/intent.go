package engine

import "strings"

// MatchIntent returns the first intent, in list order, having a pattern that
// occurs in message. Comparison is case-insensitive and blank patterns never
// match.
func MatchIntent(message string, intents []Intent) (Intent, bool) {
	lower := strings.ToLower(message)
	for _, intent := range intents {
		for _, pattern := range intent.Patterns {
			p := strings.ToLower(strings.TrimSpace(pattern))
			if p == "" {
				continue
			}
			if strings.Contains(lower, p) {
				return intent, true
			}
		}
	}
	return Intent{}, false
}
