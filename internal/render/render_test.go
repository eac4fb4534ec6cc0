package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChapterHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"single paragraph", "hello", "<p>hello</p>"},
		{"line break", "one\ntwo", "<p>one<br/>two</p>"},
		{"paragraphs", "one\n\n\ntwo", "<p>one</p>\n<p>two</p>"},
		{"crlf", "one\r\n\r\ntwo", "<p>one</p>\n<p>two</p>"},
		{"trims", "  padded  \n\n   \n\n", "<p>padded</p>"},
		{"escapes", `a < b & "c"`, "<p>a &lt; b &amp; &#34;c&#34;</p>"},
		{"markup is text", "<script>x</script>", "<p>&lt;script&gt;x&lt;/script&gt;</p>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ChapterHTML(tt.in))
		})
	}
}
