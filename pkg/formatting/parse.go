package formatting

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrParseFailed is returned when content cannot be parsed as JSON,
// either directly or from a markdown code fence.
var ErrParseFailed = errors.New("failed to parse response")

var jsonBlockRegex = regexp.MustCompile(`(?s)` + "```" + `(?:json)?\s*\n?(.*?)\n?` + "```")

// ExtractJSON returns the JSON document carried by content. Model output
// frequently wraps JSON in a markdown code fence; the fence is stripped
// when the raw content is not valid JSON on its own.
func ExtractJSON(content string) ([]byte, error) {
	content = strings.TrimSpace(content)

	if json.Valid([]byte(content)) {
		return []byte(content), nil
	}

	matches := jsonBlockRegex.FindStringSubmatch(content)
	if len(matches) >= 2 {
		cleaned := strings.TrimSpace(matches[1])
		if json.Valid([]byte(cleaned)) {
			return []byte(cleaned), nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrParseFailed, truncate(content, 256))
}

// Parse extracts JSON from content and unmarshals it into T.
// Returns ErrParseFailed if no JSON document can be recovered.
func Parse[T any](content string) (T, error) {
	var result T

	data, err := ExtractJSON(content)
	if err != nil {
		return result, err
	}

	if err := json.Unmarshal(data, &result); err != nil {
		return result, fmt.Errorf("%w: %w", ErrParseFailed, err)
	}

	return result, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
