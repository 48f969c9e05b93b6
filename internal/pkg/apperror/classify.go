package apperror

import "strings"

// Category is the coarse user-facing bucket for provider failures. The
// provider has no stable machine-readable error code, so classification is
// a substring match over the human-readable message. Keep the table here:
// upstream wording changes silently break it, and a single function is the
// only place worth auditing when that happens.
type Category string

const (
	CategoryAuth            Category = "auth"
	CategoryRateLimited     Category = "rate_limited"
	CategoryContentFiltered Category = "content_filtered"
	CategoryUnknown         Category = "unknown"
)

var categoryTokens = []struct {
	category Category
	tokens   []string
}{
	{CategoryAuth, []string{"api_key", "api key"}},
	{CategoryRateLimited, []string{"quota", "rate limit", "rate_limit", "resource_exhausted", "429"}},
	{CategoryContentFiltered, []string{"safety", "content_filter", "blocked"}},
}

// Classify buckets a provider error message. Matching is case-insensitive
// substring search, first hit wins in table order.
func Classify(message string) Category {
	lower := strings.ToLower(message)
	for _, entry := range categoryTokens {
		for _, token := range entry.tokens {
			if strings.Contains(lower, token) {
				return entry.category
			}
		}
	}
	return CategoryUnknown
}

// UserMessage maps a category to the message shown to the client.
func UserMessage(c Category) string {
	switch c {
	case CategoryAuth:
		return "Invalid or missing API key"
	case CategoryRateLimited:
		return "Rate limit exceeded. Please wait a moment and try again."
	case CategoryContentFiltered:
		return "Content blocked by safety filters"
	default:
		return "An error occurred while processing your request"
	}
}

// StatusCode maps a category to the HTTP status returned to the client.
func StatusCode(c Category) int {
	switch c {
	case CategoryAuth:
		return 401
	case CategoryRateLimited:
		return 429
	case CategoryContentFiltered:
		return 400
	default:
		return 502
	}
}

var transientTokens = []string{"transient", "temporarily", "try again later", "unavailable", "internal error"}

// HasTransientToken reports whether a provider error message carries an
// indicator that the condition is expected to resolve on its own. Used only
// to downgrade ambiguous poll-time 4xx bodies; 5xx and 404 during polling
// are transient regardless of body text.
func HasTransientToken(message string) bool {
	lower := strings.ToLower(message)
	for _, token := range transientTokens {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}
