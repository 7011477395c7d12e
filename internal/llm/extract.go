package llm

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ErrNoJSON means no JSON object could be recovered from model output.
var ErrNoJSON = errors.New("no JSON object found in model output")

var fencedBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// ExtractPlanJSON recovers the plan object from raw model text. Models wrap
// JSON in markdown fences or surround it with prose, so fenced blocks are
// tried first, then a brace-matched scan of the whole text. Candidates that
// do not parse as-is get one pass through jsonrepair before rejection.
func ExtractPlanJSON(text string) ([]byte, error) {
	var candidates []string

	if m := fencedBlockRe.FindStringSubmatch(text); m != nil {
		if c := braceSpan(m[1]); c != "" {
			candidates = append(candidates, c)
		}
	}
	if c := braceSpan(text); c != "" {
		candidates = append(candidates, c)
	}

	for _, cand := range candidates {
		if json.Valid([]byte(cand)) {
			return []byte(cand), nil
		}
		repaired, err := jsonrepair.JSONRepair(cand)
		if err == nil && json.Valid([]byte(repaired)) {
			return []byte(repaired), nil
		}
	}

	return nil, ErrNoJSON
}

// braceSpan returns the substring from the first '{' to its matching
// closing brace, tracking string literals and escapes. When the braces
// never balance it falls back to first-{ through last-} so a truncated
// tail still reaches the repair pass.
func braceSpan(text string) string {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}

	if end := strings.LastIndexByte(text, '}'); end > start {
		return text[start : end+1]
	}
	return ""
}
