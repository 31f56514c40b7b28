package service

import (
	"html"
	"net/url"
	"regexp"
	"strings"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
)

var (
	titleRegexp = regexp.MustCompile(`<(h[23])[^>]{0,}>([^<]+)</\w+>`)
	validHtmlId = regexp.MustCompile(`[^a-zA-Z0-9\-_]`)
	tagRegexp   = regexp.MustCompile(`<[^>]*>`)
	spaceRegexp = regexp.MustCompile(`\s+`)
)

// ParseMarkdown2HTML parse markdown to string,
// h2/h3 titles get stable ids usable as anchors
func ParseMarkdown2HTML(md []byte) (cnt string) {
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{
		Flags: mdhtml.CommonFlags | mdhtml.HrefTargetBlank,
	})
	cnt = string(markdown.ToHTML(md, nil, renderer))

	return titleRegexp.ReplaceAllStringFunc(cnt, func(tl string) string {
		m := titleRegexp.FindStringSubmatch(tl)
		return `<` + m[1] + ` id="` + convertTitleID(m[2]) + `">` + m[2] + `</` + m[1] + `>`
	})
}

// convertTitleID convert title to valid html id
//
// https://www.w3.org/TR/REC-html40/types.html#:~:text=ID%20and%20NAME%20tokens%20must,periods%20(%22.%22).
func convertTitleID(title string) string {
	return "header-" + validHtmlId.ReplaceAllString(url.QueryEscape(title), "")
}

// PlainText strip tags from rendered html and collapse whitespace
func PlainText(cnt string) string {
	cnt = tagRegexp.ReplaceAllString(cnt, "")
	cnt = html.UnescapeString(cnt)
	return strings.TrimSpace(spaceRegexp.ReplaceAllString(cnt, " "))
}

// Truncate truncate string to n runes
func Truncate(s string, n int) string {
	if n <= 0 {
		return s
	}

	var count int
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}

	return s
}
