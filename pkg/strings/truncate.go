package strings

import (
	"strings"
)

const (
	// DefaultLineMaxLen bounds provider response bodies quoted in error messages.
	DefaultLineMaxLen = 120

	// DefaultCellMaxLen bounds free-form values shown in table cells.
	DefaultCellMaxLen = 32
)

// MinTruncateLen is the minimum maxLen value for TruncateLine.
// Values smaller than this would not leave room for meaningful content plus "...".
const MinTruncateLen = 4

// TruncateLine collapses all whitespace (newlines included) into single
// spaces and shortens the result to maxLen runes, ending it with "..." when
// anything was cut. maxLen is clamped to MinTruncateLen.
func TruncateLine(s string, maxLen int) string {
	if maxLen < MinTruncateLen {
		maxLen = MinTruncateLen
	}

	s = strings.Join(strings.Fields(s), " ")

	// Rune-based so multi-byte characters are never split.
	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return s
}
