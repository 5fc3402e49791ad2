package i18n

import (
	"fmt"
	"io"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Attributes that tag translatable elements.
const (
	AttrText        = "data-i18n"
	AttrPlaceholder = "data-placeholder"
)

// Apply walks the tree rooted at n. Elements tagged with data-i18n whose key
// is in tr get their text content replaced; elements tagged with
// data-placeholder get their placeholder attribute replaced. It returns the
// number of substitutions made.
func Apply(n *html.Node, tr Translations) int {
	if n == nil || len(tr) == 0 {
		return 0
	}
	applied := 0
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode {
			if key, ok := attr(node, AttrText); ok {
				if v, ok := tr.Lookup(key); ok {
					setText(node, v)
					applied++
				}
			}
			if key, ok := attr(node, AttrPlaceholder); ok {
				if v, ok := tr.Lookup(key); ok {
					setAttr(node, "placeholder", v)
					applied++
				}
			}
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return applied
}

// TranslateDocument parses a full HTML document from src, applies tr and
// writes the result to dst.
func TranslateDocument(dst io.Writer, src io.Reader, tr Translations) error {
	doc, err := html.Parse(src)
	if err != nil {
		return fmt.Errorf("parse document: %w", err)
	}
	Apply(doc, tr)
	if err := html.Render(dst, doc); err != nil {
		return fmt.Errorf("render document: %w", err)
	}
	return nil
}

// TranslateFragment is TranslateDocument for partials rendered into a body.
func TranslateFragment(dst io.Writer, src io.Reader, tr Translations) error {
	context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(src, context)
	if err != nil {
		return fmt.Errorf("parse fragment: %w", err)
	}
	for _, n := range nodes {
		Apply(n, tr)
		if err := html.Render(dst, n); err != nil {
			return fmt.Errorf("render fragment: %w", err)
		}
	}
	return nil
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// setText mirrors assigning textContent: all children go, one text node stays.
func setText(n *html.Node, text string) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}
