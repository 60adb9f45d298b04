package usecase

import "strings"

// fallbackMessage is returned when brand removal leaves nothing useful.
const fallbackMessage = "generation failed"

// defaultBrandTokens cover every vendor the platform routes to. Longer tokens
// come first so "Kling AI" is removed before "Kling" would split it.
var defaultBrandTokens = []string{
	"RunwayML",
	"Runway",
	"Kling AI",
	"KlingAI",
	"Kling",
	"OpenAI",
	"DALL-E",
	"Sora",
}

// Sanitizer strips vendor/brand identifiers from outward-facing text. The
// unredacted message stays available for server-side logs; only the
// user-visible error field goes through here.
type Sanitizer struct {
	tokens []string
}

func NewSanitizer(tokens []string) *Sanitizer {
	if len(tokens) == 0 {
		tokens = defaultBrandTokens
	}
	return &Sanitizer{tokens: tokens}
}

// Sanitize removes every configured token case-insensitively, collapses the
// leftover whitespace, and falls back to a generic message when the result
// carries no content.
func (s *Sanitizer) Sanitize(msg string) string {
	out := msg
	for _, tok := range s.tokens {
		out = removeFold(out, tok)
	}
	out = strings.Join(strings.Fields(out), " ")
	if strings.Trim(out, " .,:;!?-_'\"()") == "" {
		return fallbackMessage
	}
	return out
}

// removeFold deletes every case-insensitive occurrence of token from s.
func removeFold(s, token string) string {
	if token == "" {
		return s
	}
	lower := strings.ToLower(s)
	needle := strings.ToLower(token)
	var b strings.Builder
	for {
		i := strings.Index(lower, needle)
		if i < 0 {
			b.WriteString(s)
			return b.String()
		}
		b.WriteString(s[:i])
		s = s[i+len(needle):]
		lower = lower[i+len(needle):]
	}
}
