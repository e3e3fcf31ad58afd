package memhost

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// voidElements cannot have children and have no closing tag.
var voidElements = map[string]bool{
	"area":   true,
	"br":     true,
	"col":    true,
	"embed":  true,
	"hr":     true,
	"img":    true,
	"input":  true,
	"source": true,
	"wbr":    true,
}

// HTML renders the children of n as HTML. Event handlers are not rendered;
// boolean attributes are written by name when true and omitted when false.
func (h *Host) HTML(n *Node) string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var b strings.Builder
	if n == nil {
		return ""
	}
	if n.Kind == ContainerNode {
		for _, c := range n.Children {
			writeHTML(&b, c)
		}
		return b.String()
	}
	writeHTML(&b, n)
	return b.String()
}

// Fingerprint returns a stable hash of the HTML of n. Two trees with the
// same fingerprint render identically.
func (h *Host) Fingerprint(n *Node) uint64 {
	return xxhash.Sum64String(h.HTML(n))
}

func writeHTML(b *strings.Builder, n *Node) {
	switch n.Kind {
	case TextNode:
		b.WriteString(escapeHTML(n.Text))
	case ElementNode:
		b.WriteByte('<')
		b.WriteString(n.Tag)
		for _, k := range sortedKeys(n.Attrs) {
			writeAttr(b, k, n.Attrs[k])
		}
		b.WriteByte('>')
		if voidElements[n.Tag] {
			return
		}
		for _, c := range n.Children {
			writeHTML(b, c)
		}
		b.WriteString("</")
		b.WriteString(n.Tag)
		b.WriteByte('>')
	case ContainerNode:
		for _, c := range n.Children {
			writeHTML(b, c)
		}
	}
}

func writeAttr(b *strings.Builder, name string, value any) {
	switch v := value.(type) {
	case nil:
		return
	case bool:
		if v {
			b.WriteByte(' ')
			b.WriteString(name)
		}
		return
	case string:
		fmt.Fprintf(b, ` %s="%s"`, name, escapeAttr(v))
	default:
		fmt.Fprintf(b, ` %s="%s"`, name, escapeAttr(fmt.Sprint(v)))
	}
}

// escapeHTML escapes text for inclusion in HTML content.
func escapeHTML(s string) string {
	var buf strings.Builder
	buf.Grow(len(s))

	for _, r := range s {
		switch r {
		case '&':
			buf.WriteString("&amp;")
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		default:
			buf.WriteRune(r)
		}
	}

	return buf.String()
}

// escapeAttr escapes text for inclusion in a double-quoted attribute value.
func escapeAttr(s string) string {
	var buf strings.Builder
	buf.Grow(len(s))

	for _, r := range s {
		switch r {
		case '&':
			buf.WriteString("&amp;")
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '"':
			buf.WriteString("&quot;")
		case '\n':
			buf.WriteString("&#10;")
		default:
			buf.WriteRune(r)
		}
	}

	return buf.String()
}
