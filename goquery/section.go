// Package goquery implements HTML section extraction using goquery.
package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/fwojciec/cpbrules"
	"golang.org/x/net/html"
)

// Ensure SectionExtractor implements cpbrules.Extractor at compile time.
var _ cpbrules.Extractor = (*SectionExtractor)(nil)

// SectionExtractor locates an anchored section of a page and returns its
// plain text. It is stateless and safe for concurrent use.
type SectionExtractor struct{}

// NewSectionExtractor creates a new SectionExtractor.
func NewSectionExtractor() *SectionExtractor {
	return &SectionExtractor{}
}

// Extract finds the heading described by sel and returns the text of the
// first matching container that follows it in document order. Scanning stops
// at the next element matching the heading selector.
func (e *SectionExtractor) Extract(rawHTML string, sel cpbrules.SectionSelector) (string, error) {
	if err := sel.Validate(); err != nil {
		return "", err
	}

	heading, err := cascadia.Compile(sel.Heading)
	if err != nil {
		return "", cpbrules.Errorf(cpbrules.EINVALID, "invalid heading selector %q: %v", sel.Heading, err)
	}
	container, err := cascadia.Compile(sel.Container)
	if err != nil {
		return "", cpbrules.Errorf(cpbrules.EINVALID, "invalid container selector %q: %v", sel.Container, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return "", cpbrules.Errorf(cpbrules.EINVALID, "failed to parse HTML: %v", err)
	}

	// Find("*") yields every element in document order.
	elements := doc.Find("*").Nodes

	anchor := -1
	for i, n := range elements {
		if heading.Match(n) && strings.TrimSpace(nodeText(n)) == sel.HeadingText {
			anchor = i
			break
		}
	}
	if anchor < 0 {
		return "", cpbrules.Errorf(cpbrules.EHEADING, "heading %q matching %q not found", sel.HeadingText, sel.Heading)
	}

	for _, n := range elements[anchor+1:] {
		if heading.Match(n) {
			break
		}
		if container.Match(n) {
			return joinTextNodes(n), nil
		}
	}

	return "", cpbrules.Errorf(cpbrules.ECONTAINER, "no %q found after heading %q", sel.Container, sel.HeadingText)
}

// joinTextNodes returns every non-blank descendant text node of n, trimmed,
// one per line.
func joinTextNodes(n *html.Node) string {
	var lines []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if s := strings.TrimSpace(n.Data); s != "" {
				lines = append(lines, s)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// nodeText returns the concatenated text of n and its descendants.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
