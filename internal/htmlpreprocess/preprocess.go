// Package htmlpreprocess implements the tolerant HTML preprocessing step:
// comment stripping and unsafe href removal, ahead of extraction.
package htmlpreprocess

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Process parses body as HTML (tolerant of malformed markup), removes
// comment nodes, strips unsafe href values from anchors, and serializes
// the result back to a string. It never fails; unparseable input yields
// an empty string.
func Process(body string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return ""
	}

	removeComments(doc.Nodes)

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		trimmed := strings.TrimSpace(href)
		lower := strings.ToLower(trimmed)
		if trimmed == "" || strings.HasPrefix(lower, "javascript:") || strings.HasPrefix(lower, "data:") {
			sel.RemoveAttr("href")
		}
	})

	out, err := doc.Html()
	if err != nil {
		return ""
	}
	return out
}

func removeComments(nodes []*html.Node) {
	for _, n := range nodes {
		removeCommentsFromNode(n)
	}
}

func removeCommentsFromNode(n *html.Node) {
	var next *html.Node
	for c := n.FirstChild; c != nil; c = next {
		next = c.NextSibling
		if c.Type == html.CommentNode {
			n.RemoveChild(c)
			continue
		}
		removeCommentsFromNode(c)
	}
}
