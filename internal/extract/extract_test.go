package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const conversationPage = `<!DOCTYPE html>
<html>
<head>
	<title>Shared Conversation</title>
	<script>trackEverything();</script>
	<style>.hidden { display: none }</style>
</head>
<body>
	<nav><a href="/">Home</a><a href="/about">About</a></nav>
	<article>
		<h1>Conversation</h1>
		<p>User: my script crashes when the list is empty, can you fix it?</p>
		<p>Assistant: the loop indexes past the end. Guard the empty case first
		and iterate over the items directly instead of using an index counter.
		Here is the corrected version of the function you posted.</p>
		<pre><code>def first(items):
    if not items:
        return None
    return items[0]</code></pre>
		<p>User: that works, thanks. One more question about error handling in
		the same function: should it raise instead of returning None?</p>
		<p>Assistant: returning None keeps the caller's control flow simple, but
		raising is better when an empty list means a bug upstream. Pick one and
		document it.</p>
	</article>
	<footer>Copyright footer junk</footer>
</body>
</html>`

func TestConvertConversationPage(t *testing.T) {
	c := NewConverter()

	res, err := c.Convert("http://example.com/chat/1", conversationPage)
	require.NoError(t, err)

	md := res.Markdown
	assert.Contains(t, md, "my script crashes")
	assert.Contains(t, md, "corrected version")

	// Code survives as a fenced block.
	assert.Contains(t, md, "```")
	assert.Contains(t, md, "def first(items):")

	// Scripts and styles never leak into the text.
	assert.NotContains(t, md, "trackEverything")
	assert.NotContains(t, md, ".hidden")
}

func TestConvertTinyPage(t *testing.T) {
	page := `<html><head><title>Tiny</title><script>x()</script></head>
<body><p>just one line of text</p></body></html>`

	c := NewConverter()
	res, err := c.Convert("http://example.com", page)
	require.NoError(t, err)

	assert.Contains(t, res.Markdown, "just one line of text")
	assert.NotContains(t, res.Markdown, "x()")
}

func TestCleanBodyStripsNoise(t *testing.T) {
	page := `<html><head><title>Tiny</title></head>
<body><nav>menu</nav><script>x()</script><p>just one line of text</p></body></html>`

	title, body, err := cleanBody(page)
	require.NoError(t, err)

	assert.Equal(t, "Tiny", title)
	assert.Contains(t, body, "just one line of text")
	assert.NotContains(t, body, "menu")
	assert.NotContains(t, body, "x()")
}

func TestConvertEmptyPage(t *testing.T) {
	c := NewConverter()
	res, err := c.Convert("http://example.com", "<html><body></body></html>")
	require.NoError(t, err)
	assert.Empty(t, strings.TrimSpace(res.Markdown))
}

func TestConvertBadBaseURL(t *testing.T) {
	c := NewConverter()
	res, err := c.Convert("::not a url::", "<html><body><p>content here</p></body></html>")
	require.NoError(t, err)
	assert.Contains(t, res.Markdown, "content here")
}

func TestCleanMarkdownCollapsesBlankRuns(t *testing.T) {
	in := "a\n\n\n\n\nb\n\nc\n"
	out := cleanMarkdown(in)
	assert.Equal(t, "a\n\n\nb\n\nc", out)
}
