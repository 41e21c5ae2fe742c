// Package extract locates the main content of a crawled venue page.
//
// It prefers semantic landmarks (<main>, <article>, role="main") and falls
// back to text-density scoring when a page has none. Navigation, headers,
// footers, sidebars, and ad containers are treated as boilerplate and never
// contribute to the result.
package extract

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Result holds the extracted main content of a page.
type Result struct {
	Text  string // whitespace-normalized visible text
	HTML  string // markup of the content subtree(s)
	Title string // document <title>, trimmed
	Hash  string // SHA-256 of Text
}

// Options configures extraction.
type Options struct {
	// MinTextLen is the minimum visible-text length for a subtree to count
	// as content. Default: 80.
	MinTextLen int
}

// Extract parses raw HTML and returns its main content.
func Extract(body []byte, opts Options) (*Result, error) {
	if opts.MinTextLen <= 0 {
		opts.MinTextLen = 80
	}

	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	title := findTitle(doc)

	// Semantic landmarks first.
	landmarks := findContentByLandmarks(doc)
	if len(landmarks) > 0 {
		var allText, allHTML []string
		for _, n := range landmarks {
			if isBoilerplate(n) {
				continue
			}
			text := collectText(n)
			if len(text) >= opts.MinTextLen {
				allText = append(allText, text)
				allHTML = append(allHTML, renderNode(n))
			}
		}
		if len(allText) > 0 {
			combined := strings.Join(allText, "\n\n")
			return &Result{
				Text:  combined,
				HTML:  strings.Join(allHTML, "\n"),
				Title: title,
				Hash:  hashText(combined),
			}, nil
		}
	}

	// Fall back to density scoring on the body.
	root := findBody(doc)
	if root == nil {
		root = doc
	}

	best := findDensestNode(root, opts.MinTextLen)
	if best == nil {
		// Last resort: everything that is not boilerplate.
		text := collectCleanText(root)
		if len(text) < opts.MinTextLen {
			return &Result{Title: title, Hash: hashText("")}, nil
		}
		return &Result{Text: text, HTML: renderNode(root), Title: title, Hash: hashText(text)}, nil
	}

	text := collectText(best)
	return &Result{Text: text, HTML: renderNode(best), Title: title, Hash: hashText(text)}, nil
}

// CleanText collapses runs of whitespace and strips blank lines.
func CleanText(s string) string {
	lines := strings.Split(s, "\n")
	var out []string
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// findContentByLandmarks returns nodes marked as main content by semantics:
// <main>, <article>, or role="main".
func findContentByLandmarks(doc *html.Node) []*html.Node {
	var found []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Main, atom.Article:
				found = append(found, n)
				return // do not descend into a landmark
			}
			if attrVal(n, "role") == "main" {
				found = append(found, n)
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return found
}

// isBoilerplate reports whether a node is navigation, chrome, or an ad slot.
func isBoilerplate(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.Nav, atom.Header, atom.Footer, atom.Aside, atom.Script,
		atom.Style, atom.Noscript, atom.Form, atom.Iframe:
		return true
	}
	role := attrVal(n, "role")
	if role == "navigation" || role == "banner" || role == "contentinfo" || role == "complementary" {
		return true
	}
	hint := strings.ToLower(attrVal(n, "class") + " " + attrVal(n, "id"))
	for _, kw := range []string{"cookie", "sidebar", "advert", "banner", "menu", "breadcrumb", "popup", "newsletter"} {
		if strings.Contains(hint, kw) {
			return true
		}
	}
	return false
}

// isContentTag reports whether a tag can plausibly root a content block.
func isContentTag(a atom.Atom) bool {
	switch a {
	case atom.Div, atom.Section, atom.Article, atom.Main, atom.Td, atom.Li, atom.P:
		return true
	}
	return false
}

func attrVal(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func findTitle(doc *html.Node) string {
	var title string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if title != "" {
			return
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.Title && n.FirstChild != nil {
			title = strings.TrimSpace(n.FirstChild.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return title
}

// collectText gathers the visible text of a subtree, skipping script/style.
func collectText(n *html.Node) string {
	var sb strings.Builder
	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript:
				return
			}
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				if sb.Len() > 0 {
					sb.WriteByte('\n')
				}
				sb.WriteString(text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(n)
	return sb.String()
}

// collectCleanText extracts text excluding boilerplate regions.
func collectCleanText(n *html.Node) string {
	var sb strings.Builder
	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.ElementNode && isBoilerplate(n) {
			return
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				if sb.Len() > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(n)
	return sb.String()
}

func findBody(doc *html.Node) *html.Node {
	var body *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if body != nil {
			return
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.Body {
			body = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return body
}

func renderNode(n *html.Node) string {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return ""
	}
	return buf.String()
}

func hashText(s string) string {
	h := sha256.Sum256([]byte(s))
	return fmt.Sprintf("%x", h)
}
