package client

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/menta2k/smartcrop/pkg/types"
)

var (
	reBlockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)
	reLineComment  = regexp.MustCompile(`(?m)^\s*//.*$`)
	// only strip // that follows a JSON token so URLs inside strings survive
	reInlineComment = regexp.MustCompile(`(?m)([,{}\[\]]|\d|true|false|null|")\s+//.*$`)
	reTrailingComma = regexp.MustCompile(`,(\s*[}\]])`)
)

// ParseSubjectResult turns a raw model reply into a SubjectResult. Replies
// that cannot be parsed yield a "none" subject instead of an error, so a
// chatty model never fails a crop.
func ParseSubjectResult(raw string) *types.SubjectResult {
	raw = SanitizeModelJSON(raw)

	if !strings.HasPrefix(raw, "{") {
		return fallbackResult("Model returned non-JSON response", "non-json")
	}

	var result types.SubjectResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return fallbackResult("Failed to parse model response", "parse-error")
	}

	if result.Primary.Label == "" && result.Primary.Confidence == 0 {
		if result.Primary.Cx == 0 && result.Primary.Cy == 0 {
			result.Primary.Cx = 0.5
			result.Primary.Cy = 0.5
		}
		if result.Primary.Box.W == 0 && result.Primary.Box.H == 0 {
			result.Primary.Box = centerBox()
		}
	}

	return &result
}

// SanitizeModelJSON removes code fences, comments, and trailing commas from a model reply
func SanitizeModelJSON(raw string) string {
	raw = strings.TrimSpace(raw)

	// Strip triple-backtick fences if present
	if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		}
		if j := strings.LastIndex(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	raw = strings.Trim(strings.TrimSpace(raw), "`")

	raw = reBlockComment.ReplaceAllString(raw, "")
	raw = reLineComment.ReplaceAllString(raw, "")
	raw = reInlineComment.ReplaceAllString(raw, "$1")
	raw = reTrailingComma.ReplaceAllString(raw, "$1")

	// Keep only the outermost {...}
	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			raw = raw[start : end+1]
		}
	}
	return strings.TrimSpace(raw)
}

func fallbackResult(description string, tags ...string) *types.SubjectResult {
	return &types.SubjectResult{
		Primary: types.Primary{
			Label:      "none",
			Confidence: 0,
			Box:        centerBox(),
			Cx:         0.5,
			Cy:         0.5,
		},
		Description: description,
		Tags:        append(tags, "fallback"),
	}
}

func centerBox() types.Box {
	return types.Box{X: 0.25, Y: 0.25, W: 0.5, H: 0.5}
}
