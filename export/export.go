// Package export renders a tree as a readable outline.
package export

import (
	"bytes"
	"strings"

	"deepmap_research/tree"

	"github.com/yuin/goldmark"
)

// Markdown writes the root as a heading and every branch as a nested bullet.
// Line breaks inside a prompt are folded so each node stays one list item.
func Markdown(t *tree.Node) string {
	var sb strings.Builder
	sb.WriteString("# ")
	sb.WriteString(oneLine(t.Prompt))
	sb.WriteString("\n")
	if !t.IsLeaf() {
		sb.WriteString("\n")
	}
	for _, child := range t.Branches {
		writeItem(&sb, child, 0)
	}
	return sb.String()
}

func writeItem(sb *strings.Builder, n *tree.Node, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteString("- ")
	sb.WriteString(oneLine(n.Prompt))
	sb.WriteString("\n")
	for _, child := range n.Branches {
		writeItem(sb, child, depth+1)
	}
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// HTML renders the Markdown outline with goldmark.
func HTML(t *tree.Node) (string, error) {
	return mdToHTML(Markdown(t))
}

func mdToHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
