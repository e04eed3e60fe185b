package markup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeV1(t *testing.T) {
	assert.Equal(t, `snake\_case \*star\* \[link\]\(url\) \`+"`"+`code\`+"`", EscapeV1("snake_case *star* [link](url) `code`"))
	assert.Equal(t, "v1.2 - ok!", EscapeV1("v1.2 - ok!"))
}

func TestEscapeV2(t *testing.T) {
	assert.Equal(t, `a\_b \~ \> \# \+ \- \= \| \{ \} \. \!`, EscapeV2("a_b ~ > # + - = | { } . !"))
	assert.Equal(t, `\(1\)`, EscapeV2("(1)"))
}

func TestDialectEscape(t *testing.T) {
	assert.Equal(t, `Doc\_A`, DialectMarkdown.Escape("Doc_A"))
	assert.Equal(t, `Doc\_A\.`, DialectMarkdownV2.Escape("Doc_A."))
	assert.Equal(t, "Doc_A.", DialectPlain.Escape("Doc_A."))
}
