package markup

import "regexp"

var (
	v1Special = regexp.MustCompile("[_*\\[\\]()`]")
	v2Special = regexp.MustCompile("[_*\\[\\]()`~>#+\\-=|{}.!]")
)

// EscapeV1 backslash-escapes the characters legacy Markdown treats as markup.
func EscapeV1(s string) string {
	return v1Special.ReplaceAllString(s, `\$0`)
}

// EscapeV2 escapes every character reserved by MarkdownV2.
func EscapeV2(s string) string {
	return v2Special.ReplaceAllString(s, `\$0`)
}

// Dialect names the markup a chat client is asked to interpret.
type Dialect string

const (
	DialectPlain      Dialect = ""
	DialectMarkdown   Dialect = "Markdown"
	DialectMarkdownV2 Dialect = "MarkdownV2"
)

// Escape makes s safe to embed as literal text in the dialect.
func (d Dialect) Escape(s string) string {
	switch d {
	case DialectMarkdown:
		return EscapeV1(s)
	case DialectMarkdownV2:
		return EscapeV2(s)
	default:
		return s
	}
}
