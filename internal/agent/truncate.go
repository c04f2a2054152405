package agent

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

const (
	// MaxToolResultChars is the longest tool result, in characters, handed
	// back to the model.
	MaxToolResultChars = 15000

	// TruncationSuffix marks a result that was cut.
	TruncationSuffix = "\n... [truncated]"

	// NoOutputResult stands in for a tool that returned nothing.
	NoOutputResult = "completed"
)

// Truncate cuts s to limit characters and appends TruncationSuffix. Strings
// of at most limit characters are returned unchanged.
func Truncate(s string, limit int) (string, bool) {
	if utf8.RuneCountInString(s) <= limit {
		return s, false
	}
	runes := []rune(s)
	return string(runes[:limit]) + TruncationSuffix, true
}

// ResultString renders a raw tool result for the conversation. Strings pass
// through, everything else is encoded as JSON.
func ResultString(v any) string {
	switch r := v.(type) {
	case nil:
		return NoOutputResult
	case string:
		if r == "" {
			return NoOutputResult
		}
		return r
	case []byte:
		if len(r) == 0 {
			return NoOutputResult
		}
		return string(r)
	}

	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	if string(b) == "null" {
		return NoOutputResult
	}
	return string(b)
}
