package htmldoc

import (
	"strings"

	"golang.org/x/net/html"
)

// querySelectorAll returns the elements matching a simple CSS selector in
// document order. Supported: tag, .class (repeatable), #id, tag[attr],
// tag[attr=val] and the descendant combinator (whitespace).
func querySelectorAll(root *html.Node, selector string) []*html.Node {
	parts := strings.Fields(selector)
	if len(parts) == 0 {
		return nil
	}

	matches := matchDescendants(root, parseSimpleSelector(parts[0]), true)
	for _, p := range parts[1:] {
		sel := parseSimpleSelector(p)
		seen := make(map[*html.Node]bool)
		var next []*html.Node
		for _, parent := range matches {
			for _, n := range matchDescendants(parent, sel, false) {
				if !seen[n] {
					seen[n] = true
					next = append(next, n)
				}
			}
		}
		matches = next
	}
	return matches
}

func querySelector(root *html.Node, selector string) *html.Node {
	if m := querySelectorAll(root, selector); len(m) > 0 {
		return m[0]
	}
	return nil
}

// matchDescendants walks below root; self includes root itself.
func matchDescendants(root *html.Node, s simpleSelector, self bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if s.matches(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	if self {
		walk(root)
		return out
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		walk(c)
	}
	return out
}

type simpleSelector struct {
	tag     string
	id      string
	classes []string
	attrKey string
	attrVal string
}

// parseSimpleSelector parses "tag.class", "#id", "tag[attr=val]", ".a.b".
func parseSimpleSelector(sel string) simpleSelector {
	var s simpleSelector

	if idx := strings.IndexByte(sel, '['); idx >= 0 {
		attrPart := strings.TrimRight(sel[idx+1:], "]")
		sel = sel[:idx]
		if eq := strings.IndexByte(attrPart, '='); eq >= 0 {
			s.attrKey = attrPart[:eq]
			s.attrVal = strings.Trim(attrPart[eq+1:], `"'`)
		} else {
			s.attrKey = attrPart
		}
	}

	if idx := strings.IndexByte(sel, '.'); idx >= 0 {
		for _, c := range strings.Split(sel[idx+1:], ".") {
			if c != "" {
				s.classes = append(s.classes, c)
			}
		}
		sel = sel[:idx]
	}

	if idx := strings.IndexByte(sel, '#'); idx >= 0 {
		s.id = sel[idx+1:]
		sel = sel[:idx]
	}

	s.tag = sel
	return s
}

func (s simpleSelector) matches(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if s.tag != "" && n.Data != s.tag {
		return false
	}
	if s.id != "" && getAttr(n, "id") != s.id {
		return false
	}
	for _, c := range s.classes {
		if !hasClass(n, c) {
			return false
		}
	}
	if s.attrKey != "" {
		val, ok := lookupAttr(n, s.attrKey)
		if !ok || (s.attrVal != "" && val != s.attrVal) {
			return false
		}
	}
	return true
}

func lookupAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func getAttr(n *html.Node, key string) string {
	v, _ := lookupAttr(n, key)
	return v
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(getAttr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}
