package graph

import (
	"encoding/json"
	"strings"

	appErrors "archflow-backend/pkg/errors"
)

// ParseDelta extracts a Delta from raw model output. Models are asked for
// bare JSON but routinely wrap it in markdown fences or surround it with
// prose, so parsing strips a single fence pair first and then falls back
// to the outermost brace span before giving up.
//
// Failure modes are parse errors: "no valid structured content found"
// when no JSON object can be recovered at all, and "invalid delta
// structure" when JSON was recovered but does not satisfy the delta
// contract. Unknown object keys are tolerated.
func ParseDelta(raw string) (*Delta, error) {
	text := stripFences(raw)

	objText, ok := extractJSONObject(text)
	if !ok {
		return nil, appErrors.NewParseError("no valid structured content found")
	}

	delta, err := DecodeDelta([]byte(objText))
	if err != nil {
		perr := appErrors.NewParseError("invalid delta structure").WithCause(err)
		if app := appErrors.GetAppError(err); app != nil && app.Details != nil {
			perr = perr.WithDetails(app.Details)
		}
		return nil, perr
	}
	return delta, nil
}

// stripFences removes one leading ``` or ```json fence and the matching
// trailing fence. Anything beyond a single fence pair is left for the
// brace-span fallback.
func stripFences(raw string) string {
	text := strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(text, "```json"):
		text = strings.TrimPrefix(text, "```json")
	case strings.HasPrefix(text, "```"):
		text = strings.TrimPrefix(text, "```")
	default:
		return text
	}
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// extractJSONObject returns text that parses as a JSON object: the input
// itself if it already does, otherwise the span from the first "{" to the
// last "}".
func extractJSONObject(text string) (string, bool) {
	if isJSONObject(text) {
		return text, true
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	candidate := text[start : end+1]
	if isJSONObject(candidate) {
		return candidate, true
	}
	return "", false
}

func isJSONObject(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "{") && json.Valid([]byte(s))
}
