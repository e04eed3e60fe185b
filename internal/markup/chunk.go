package markup

import (
	"strings"
	"unicode/utf8"
)

// DefaultLimit keeps a segment safely under Telegram's 4096 character cap.
const DefaultLimit = 3900

// Chunk splits text into segments of at most limit characters, breaking only
// at newlines. A line longer than limit becomes its own oversized segment.
// Joining the segments with "\n" gives back text.
func Chunk(text string, limit int) []string {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var (
		segments []string
		current  []string
		size     int
	)
	for _, line := range strings.Split(text, "\n") {
		n := utf8.RuneCountInString(line)
		cost := n
		if len(current) > 0 {
			cost++
		}
		if len(current) > 0 && size+cost > limit {
			segments = append(segments, strings.Join(current, "\n"))
			current, size, cost = nil, 0, n
		}
		current = append(current, line)
		size += cost
	}
	if len(current) > 0 {
		segments = append(segments, strings.Join(current, "\n"))
	}
	return segments
}
