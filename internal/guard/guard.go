// Package guard classifies incoming messages before any provider call is
// made: a coarse multilingual keyword allowlist decides whether a message
// is in-domain, and a fixed pattern table catches instruction-override
// attempts.
package guard

import (
	"regexp"
	"strings"
	"time"
)

// religiousKeywords is a recall-oriented allowlist spanning core terms of
// the domain, including Arabic-script variants. False negatives on
// paraphrased questions are an accepted trade-off.
var religiousKeywords = []string{
	"allah", "kuran", "hadis", "namaz", "dua", "islam", "müslüman", "peygamber",
	"ayet", "sure", "din", "iman", "ibadet", "haram", "helal", "fıkıh",
	"tefsir", "sünnet", "sahabe", "cami", "mescit", "ramazan", "oruç",
	"zekat", "hac", "umre", "kabe", "medine", "mekke", "قرآن", "الله",
}

// injectionPatterns match known instruction-override phrasings. The table
// is checked independently of the keyword allowlist.
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+previous\s+instructions`),
	regexp.MustCompile(`(?i)forget\s+what\s+i\s+told\s+you`),
	regexp.MustCompile(`(?i)you\s+are\s+now`),
	regexp.MustCompile(`(?i)system\s*:`),
	regexp.MustCompile(`(?i)assistant\s*:`),
	regexp.MustCompile(`(?i)new\s+role`),
	regexp.MustCompile(`(?i)role\s*:\s*system`),
	regexp.MustCompile(`(?i)pretend\s+to\s+be`),
	regexp.MustCompile(`(?i)act\s+as\s+if`),
	regexp.MustCompile(`(?i)override\s+your`),
	regexp.MustCompile(`(?i)jailbreak`),
	regexp.MustCompile(`(?i)\[SYSTEM\]`),
	regexp.MustCompile(`(?i)\[ASSISTANT\]`),
}

// Verdict is the outcome of classifying one message.
type Verdict struct {
	IsReligious  bool      `json:"isReligious"`
	HasInjection bool      `json:"hasInjection"`
	Timestamp    time.Time `json:"timestamp"`
}

// Blocked reports whether the message must be refused.
func (v Verdict) Blocked() bool {
	return !v.IsReligious || v.HasInjection
}

// IsReligious reports whether the lower-cased text contains at least one
// domain keyword.
func IsReligious(text string) bool {
	lower := strings.ToLower(text)
	for _, keyword := range religiousKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// HasInjection reports whether the text matches any instruction-override
// pattern.
func HasInjection(text string) bool {
	for _, pattern := range injectionPatterns {
		if pattern.MatchString(text) {
			return true
		}
	}
	return false
}

// Classify runs both classifiers over the message.
func Classify(message string) Verdict {
	return Verdict{
		IsReligious:  IsReligious(message),
		HasInjection: HasInjection(message),
		Timestamp:    time.Now().UTC(),
	}
}
