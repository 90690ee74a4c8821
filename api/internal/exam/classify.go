package exam

import (
	"encoding/json"
	"errors"
	"strings"
)

var ErrInvalidRequest = errors.New("invalid request: provide image, context with question, or testTopics")

// Classify picks the mode by field presence, in priority order:
// image, then context+question, then testTopics.
// testTopics counts as present whenever it is a non-null array, empty included.
func Classify(req Request) (Mode, error) {
	switch {
	case strings.TrimSpace(req.Image) != "":
		return ModeImage, nil
	case hasContext(req) && req.Question != "":
		return ModeFollowUp, nil
	case req.TestTopics != nil:
		return ModeTest, nil
	default:
		return "", ErrInvalidRequest
	}
}

// hasContext reports whether the context is set to a truthy value:
// absent, null, false, "" and any numeric zero are missing.
func hasContext(req Request) bool {
	if len(req.Context) == 0 {
		return false
	}
	var v any
	if err := json.Unmarshal(req.Context, &v); err != nil {
		// out-of-range numbers are still non-zero
		return true
	}
	switch c := v.(type) {
	case nil:
		return false
	case bool:
		return c
	case string:
		return c != ""
	case float64:
		return c != 0
	}
	return true
}
