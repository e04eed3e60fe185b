// Package markup converts answer text into the Markdown dialect Telegram
// renders, escapes literal text for it, and splits long replies into
// message-sized segments.
package markup

import "strings"

// Normalize rewrites mixed markdown conventions into Telegram's legacy
// Markdown: "* " bullets become "- ", **bold** becomes *bold* and __italic__
// becomes _italic_. Fenced blocks and inline code spans are copied unchanged.
//
// Normalize is idempotent.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	atLineStart := true
	for _, s := range splitCode(text) {
		if s.code {
			b.WriteString(s.text)
		} else {
			b.WriteString(rewrite(s.text, atLineStart))
		}
		atLineStart = strings.HasSuffix(s.text, "\n")
	}
	return b.String()
}

type span struct {
	text string
	code bool
}

// splitCode cuts text into alternating plain and code spans. An unterminated
// fence runs to the end of the text; an unmatched single backtick is plain.
func splitCode(text string) []span {
	var spans []span
	start := 0
	for start < len(text) {
		j := strings.IndexByte(text[start:], '`')
		if j < 0 {
			break
		}
		j += start

		var end int
		if strings.HasPrefix(text[j:], "```") {
			k := strings.Index(text[j+3:], "```")
			if k < 0 {
				end = len(text)
			} else {
				end = j + 3 + k + 3
			}
		} else {
			k := strings.IndexByte(text[j+1:], '`')
			if k < 0 {
				break
			}
			end = j + 1 + k + 1
		}

		if j > start {
			spans = append(spans, span{text: text[start:j]})
		}
		spans = append(spans, span{text: text[j:end], code: true})
		start = end
	}
	if start < len(text) {
		spans = append(spans, span{text: text[start:]})
	}
	return spans
}

func rewrite(s string, atLineStart bool) string {
	s = rewriteBullets(s, atLineStart)
	s = collapsePairs(s, '*')
	s = collapsePairs(s, '_')
	return s
}

// rewriteBullets turns "* item" list markers into "- item". The first line of
// s only counts when s begins a line of the full text.
func rewriteBullets(s string, atLineStart bool) string {
	if !strings.Contains(s, "* ") {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if i == 0 && !atLineStart {
			continue
		}
		rest := strings.TrimLeft(line, " \t")
		if strings.HasPrefix(rest, "* ") {
			lines[i] = line[:len(line)-len(rest)] + "- " + rest[2:]
		}
	}
	return strings.Join(lines, "\n")
}

// collapsePairs replaces doubled emphasis delimiters with single ones, line
// by line.
func collapsePairs(s string, delim byte) string {
	if !strings.Contains(s, string([]byte{delim, delim})) {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = collapseLine(line, delim)
	}
	return strings.Join(lines, "\n")
}

// collapseLine pairs maximal delimiter runs left to right. A run of exactly
// two pairs with the next run when that one is also exactly two, the opener
// is followed by a non-space and the closer is preceded by one. Paired runs
// shrink to one delimiter, so a second pass never finds a new pair.
func collapseLine(line string, delim byte) string {
	type run struct{ start, end int }

	var runs []run
	for i := 0; i < len(line); {
		if line[i] != delim {
			i++
			continue
		}
		j := i
		for j < len(line) && line[j] == delim {
			j++
		}
		runs = append(runs, run{i, j})
		i = j
	}

	var drop []int
	for k := 0; k+1 < len(runs); {
		open, closing := runs[k], runs[k+1]
		if open.end-open.start == 2 && closing.end-closing.start == 2 &&
			!isBlank(line[open.end]) && !isBlank(line[closing.start-1]) {
			drop = append(drop, open.start, closing.start)
			k += 2
			continue
		}
		k++
	}
	if len(drop) == 0 {
		return line
	}

	var b strings.Builder
	b.Grow(len(line))
	prev := 0
	for _, d := range drop {
		b.WriteString(line[prev:d])
		prev = d + 1
	}
	b.WriteString(line[prev:])
	return b.String()
}

func isBlank(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r'
}
