// Package textextract derives plain text from a fetched page and tallies
// word frequencies within it.
package textextract

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var wordPattern = regexp.MustCompile(`\w+`)

// ExtractText returns the visible text of body. HTML documents are walked
// node by node, concatenating every text node, including script/style
// bodies; text/plain passes through unchanged.
func ExtractText(contentType string, body []byte) (string, error) {
	if contentType != "text/html" {
		return string(body), nil
	}

	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	walk(doc, &b)
	return strings.TrimSpace(b.String()), nil
}

func walk(n *html.Node, b *strings.Builder) {
	if n.Type == html.TextNode {
		trimmed := strings.TrimSpace(n.Data)
		if trimmed != "" {
			b.WriteString(trimmed)
			b.WriteByte('\n')
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, b)
	}
}

// CountWords lowercases text and tallies every \w+ token.
func CountWords(text string) map[string]int {
	counts := make(map[string]int)
	for _, word := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		counts[word]++
	}
	return counts
}
