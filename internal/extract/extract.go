// Package extract turns rendered page HTML into markdown text. Readability
// isolates the main content; code blocks survive as fenced markdown, which
// matters for pages carrying user-assistant conversations with code.
package extract

import (
	"fmt"
	"net/url"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// noiseSelector lists elements stripped from the fallback path when
// readability cannot find an article body.
const noiseSelector = "script, style, noscript, iframe, object, embed, svg, nav, header, footer, aside, form"

// Result is the extracted page content.
type Result struct {
	Title    string
	Markdown string
}

// Converter converts rendered HTML to markdown.
type Converter struct {
	converter *md.Converter
}

func NewConverter() *Converter {
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())

	return &Converter{converter: converter}
}

// Convert extracts the main content of the page at pageURL from its rendered
// HTML and renders it as markdown.
func (c *Converter) Convert(pageURL, html string) (*Result, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		base = &url.URL{}
	}

	var title, content string
	if article, err := readability.FromReader(strings.NewReader(html), base); err == nil {
		title = article.Title
		content = article.Content
	}

	// Readability gives up on pages without an article-shaped body
	// (dashboards, raw conversation dumps). Fall back to a cleaned <body>.
	if strings.TrimSpace(content) == "" {
		title2, body, err := cleanBody(html)
		if err != nil {
			return nil, fmt.Errorf("extract content: %w", err)
		}
		if title == "" {
			title = title2
		}
		content = body
	}

	markdown, err := c.converter.ConvertString(content)
	if err != nil {
		return nil, fmt.Errorf("convert to markdown: %w", err)
	}

	return &Result{
		Title:    title,
		Markdown: cleanMarkdown(markdown),
	}, nil
}

// cleanBody strips non-content elements and returns the page title and the
// remaining <body> markup.
func cleanBody(html string) (title, body string, err error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", "", err
	}

	title = strings.TrimSpace(doc.Find("title").First().Text())

	doc.Find(noiseSelector).Remove()

	body, err = doc.Find("body").First().Html()
	if err != nil {
		return "", "", err
	}
	return title, body, nil
}

func cleanMarkdown(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))

	blank := 0
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			blank++
			if blank > 2 {
				continue
			}
		} else {
			blank = 0
		}
		out = append(out, line)
	}

	return strings.TrimSpace(strings.Join(out, "\n"))
}
