package usecase

import "strings"

type FailureCategory string

const (
	FailureModeration FailureCategory = "moderation_rejection"
	FailureGeneric    FailureCategory = "generic_failure"
)

// defaultModerationKeywords match the wording the wired vendors use today
// when they reject content. The list is heuristic and config-overridable; it
// is not assumed exhaustive.
var defaultModerationKeywords = []string{
	"moderation",
	"did not pass",
	"content policy",
	"policy violation",
}

// Classifier assigns a raw vendor failure message to a category. Pure and
// deterministic: the same input always yields the same category.
type Classifier struct {
	keywords []string
}

func NewClassifier(keywords []string) *Classifier {
	if len(keywords) == 0 {
		keywords = defaultModerationKeywords
	}
	lowered := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			lowered = append(lowered, k)
		}
	}
	return &Classifier{keywords: lowered}
}

func (c *Classifier) Classify(rawMessage string) FailureCategory {
	msg := strings.ToLower(rawMessage)
	for _, k := range c.keywords {
		if strings.Contains(msg, k) {
			return FailureModeration
		}
	}
	return FailureGeneric
}
