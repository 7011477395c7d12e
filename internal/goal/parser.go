// Package goal parses free-text goals into the coarse profile that drives
// plan generation: a category, a target duration in days, and an optional
// learning subject.
package goal

import (
	"regexp"
	"strconv"
	"strings"
)

// Category names form a closed enumeration; goals that match no rule fall
// back to the generic category.
const (
	CategorySoftwareLaunch = "software-launch"
	CategoryEventPlanning  = "event-planning"
	CategoryLearning       = "learning"
	CategoryResearch       = "research"
	CategoryGeneric        = "generic-project"
)

// DefaultDurationDays is used when the goal carries no duration expression.
const DefaultDurationDays = 14

// Profile is the parsed view of a goal. Parsing is pure and best-effort:
// the same input always yields the same profile and no input is rejected.
type Profile struct {
	Category        string   `json:"category"`
	DurationDays    int      `json:"duration_days"`
	MatchedKeywords []string `json:"matched_keywords,omitempty"`
	Subject         string   `json:"subject,omitempty"`
	Confidence      float64  `json:"confidence"`
}

// categoryRule binds a category to the keywords that select it. Rules are
// evaluated in order and the first rule with any keyword hit wins, so
// overlapping keywords resolve by rule position.
type categoryRule struct {
	category string
	keywords []string
}

var categoryRules = []categoryRule{
	{CategorySoftwareLaunch, []string{"product", "launch", "app", "software", "platform", "mobile", "website", "release"}},
	{CategoryEventPlanning, []string{"event", "meeting", "conference", "workshop", "party", "gathering", "wedding"}},
	{CategoryLearning, []string{"learn", "study", "course", "training", "skill", "master"}},
	{CategoryResearch, []string{"research", "paper", "thesis", "study", "analysis", "report"}},
}

// durationPatterns are tried in table order; the first pattern that matches
// anywhere in the goal decides the duration, so "2 weeks and 3 days" reads
// as 14 days.
var durationPatterns = []struct {
	re         *regexp.Regexp
	daysPerHit int
}{
	{regexp.MustCompile(`(\d+)\s*weeks?`), 7},
	{regexp.MustCompile(`(\d+)\s*days?`), 1},
	{regexp.MustCompile(`(\d+)\s*months?`), 30},
}

// subjectWords are recognized learning subjects, checked in order.
var subjectWords = []string{
	"machine learning",
	"data science",
	"python",
	"java",
	"javascript",
	"go",
	"rust",
	"programming",
	"coding",
	"design",
	"marketing",
}

// Parse derives a profile from a goal string. It never errors: unmatched
// goals get the generic category and the default duration.
func Parse(text string) Profile {
	lower := strings.ToLower(text)

	p := Profile{
		Category:     CategoryGeneric,
		DurationDays: parseDuration(lower),
	}

	for _, rule := range categoryRules {
		var matched []string
		for _, kw := range rule.keywords {
			if containsWord(lower, kw) {
				matched = append(matched, kw)
			}
		}
		if len(matched) > 0 {
			p.Category = rule.category
			p.MatchedKeywords = matched
			p.Confidence = confidence(len(matched))
			break
		}
	}

	if p.Category == CategoryLearning {
		p.Subject = detectSubject(lower)
	}

	return p
}

// parseDuration extracts the target duration in days from lowercased goal
// text, defaulting to two weeks.
func parseDuration(lower string) int {
	for _, pat := range durationPatterns {
		m := pat.re.FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n <= 0 {
			continue
		}
		return n * pat.daysPerHit
	}
	return DefaultDurationDays
}

func confidence(hits int) float64 {
	c := 0.6 + 0.15*float64(hits-1)
	if c > 0.95 {
		c = 0.95
	}
	return c
}

func detectSubject(lower string) string {
	for _, s := range subjectWords {
		if containsWord(lower, s) {
			return s
		}
	}
	return ""
}

// containsWord checks if text contains keyword as a whole word.
func containsWord(text, keyword string) bool {
	// Multi-word keywords like "machine learning" use simple contains
	if strings.Contains(keyword, " ") {
		return strings.Contains(text, keyword)
	}

	for _, word := range strings.Fields(text) {
		cleaned := strings.Trim(word, ".,;:!?\"'()[]{}")
		if cleaned == keyword {
			return true
		}
	}
	return false
}
