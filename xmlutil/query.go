package xmlutil

import (
	"strings"

	"github.com/antchfx/xmlquery"
)

// DocumentElement returns the first element child of doc, or nil.
func DocumentElement(doc *xmlquery.Node) *xmlquery.Node {
	if doc == nil {
		return nil
	}
	if doc.Type == xmlquery.ElementNode {
		return doc
	}
	for c := doc.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			return c
		}
	}
	return nil
}

// ChildElements returns the element children of n.
func ChildElements(n *xmlquery.Node) (elems []*xmlquery.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			elems = append(elems, c)
		}
	}
	return elems
}

// Compress removes whitespace-only text nodes below n.
func Compress(n *xmlquery.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == xmlquery.TextNode && strings.TrimSpace(c.Data) == "" {
			unlink(c)
		} else {
			Compress(c)
		}
		c = next
	}
}

func unlink(n *xmlquery.Node) {
	if n.PrevSibling != nil {
		n.PrevSibling.NextSibling = n.NextSibling
	} else if n.Parent != nil {
		n.Parent.FirstChild = n.NextSibling
	}
	if n.NextSibling != nil {
		n.NextSibling.PrevSibling = n.PrevSibling
	} else if n.Parent != nil {
		n.Parent.LastChild = n.PrevSibling
	}
	n.Parent, n.PrevSibling, n.NextSibling = nil, nil, nil
}

// StripNamespaces removes element prefixes and default namespace
// declarations below n. Prefix declarations are kept only where an
// attribute still uses the prefix.
func StripNamespaces(n *xmlquery.Node) {
	used := map[string]bool{}
	walk(n, func(e *xmlquery.Node) {
		for _, a := range e.Attr {
			if a.Name.Space != "" && a.Name.Space != "xmlns" {
				used[a.Name.Space] = true
			}
		}
	})
	walk(n, func(e *xmlquery.Node) {
		e.Prefix, e.NamespaceURI = "", ""
		kept := e.Attr[:0]
		for _, a := range e.Attr {
			switch {
			case a.Name.Space == "" && a.Name.Local == "xmlns":
				continue
			case a.Name.Space == "xmlns" && !used[a.Name.Local]:
				continue
			}
			kept = append(kept, a)
		}
		e.Attr = kept
	})
}

// walk calls fn for every element at or below n.
func walk(n *xmlquery.Node, fn func(*xmlquery.Node)) {
	if n.Type == xmlquery.ElementNode {
		fn(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}
