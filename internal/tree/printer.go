// Package tree prints rendered answer sets as an indented terminal tree.
package tree

import (
	"fmt"
	"io"
	"strings"

	"github.com/gookit/color"
	"github.com/mattn/go-runewidth"

	"github.com/dbsmedya/visitexport/internal/response"
)

const (
	indentUnit = "  "
	imageTag   = "[image]"

	// maxRefWidth caps how much of an image reference is printed. Data URIs
	// can be megabytes long.
	maxRefWidth = 60
	dataURIHead = 32
)

// Options controls tree output.
type Options struct {
	// NoColor disables ANSI styling.
	NoColor bool
	// Indent is the prefix added per depth level. Defaults to two spaces.
	Indent string
}

// Printer writes response.Node trees to a writer.
type Printer struct {
	w      io.Writer
	opts   Options
	label  color.Style
	muted  color.Style
	accent color.Style
}

// NewPrinter creates a printer writing to w.
func NewPrinter(w io.Writer, opts Options) *Printer {
	if opts.Indent == "" {
		opts.Indent = indentUnit
	}
	return &Printer{
		w:      w,
		opts:   opts,
		label:  color.New(color.FgCyan, color.OpBold),
		muted:  color.New(color.FgGray),
		accent: color.New(color.FgMagenta),
	}
}

// Print writes node and its descendants. The root's own label, if any, is
// printed as a heading.
func (p *Printer) Print(node *response.Node) error {
	if node == nil {
		return nil
	}
	if node.Label != "" {
		if _, err := fmt.Fprintln(p.w, p.paint(p.label, node.Label)); err != nil {
			return err
		}
	}
	if node.IsLeaf() {
		return p.printLeaf(node, "", 0)
	}
	return p.printChildren(node, 0)
}

func (p *Printer) printChildren(group *response.Node, level int) error {
	width := LabelWidth(group.Children)
	prefix := strings.Repeat(p.opts.Indent, level)

	for _, child := range group.Children {
		label := runewidth.FillRight(child.Label+":", width)

		if !child.IsLeaf() {
			if _, err := fmt.Fprintf(p.w, "%s%s\n", prefix, p.paint(p.label, strings.TrimRight(label, " "))); err != nil {
				return err
			}
			if err := p.printChildren(child, level+1); err != nil {
				return err
			}
			continue
		}

		if err := p.printLeaf(child, prefix+p.paint(p.label, label)+" ", level); err != nil {
			return err
		}
	}
	return nil
}

func (p *Printer) printLeaf(node *response.Node, head string, level int) error {
	switch node.Kind {
	case response.NodeImage:
		ref := ""
		if len(node.Images) > 0 {
			ref = node.Images[0]
		}
		_, err := fmt.Fprintf(p.w, "%s%s %s\n", head, p.paint(p.accent, imageTag), ShortenRef(ref))
		return err

	case response.NodeGallery:
		if _, err := fmt.Fprintf(p.w, "%s%s\n", head, p.paint(p.muted, fmt.Sprintf("%d image(s)", len(node.Images)))); err != nil {
			return err
		}
		prefix := strings.Repeat(p.opts.Indent, level+1)
		for _, ref := range node.Images {
			if _, err := fmt.Fprintf(p.w, "%s%s %s\n", prefix, p.paint(p.accent, imageTag), ShortenRef(ref)); err != nil {
				return err
			}
		}
		return nil

	default:
		text := node.Text
		if isPlaceholder(text) {
			text = p.paint(p.muted, text)
		}
		_, err := fmt.Fprintf(p.w, "%s%s\n", head, text)
		return err
	}
}

func (p *Printer) paint(style color.Style, s string) string {
	if p.opts.NoColor {
		return s
	}
	return style.Sprint(s)
}

// LabelWidth returns the widest "Label:" among nodes in terminal cells.
// Wide runes count as two cells.
func LabelWidth(nodes []*response.Node) int {
	width := 0
	for _, n := range nodes {
		if w := runewidth.StringWidth(n.Label + ":"); w > width {
			width = w
		}
	}
	return width
}

// ShortenRef shortens an image reference for display. Data URIs keep their
// media type prefix; other references are truncated to a fixed width.
func ShortenRef(ref string) string {
	if strings.HasPrefix(ref, "data:") {
		head := ref
		if i := strings.IndexByte(ref, ','); i >= 0 && i < dataURIHead {
			head = ref[:i+1]
		} else if len(ref) > dataURIHead {
			head = ref[:dataURIHead]
		}
		if len(head) < len(ref) {
			return fmt.Sprintf("%s... (%d bytes)", head, len(ref))
		}
		return ref
	}
	return runewidth.Truncate(ref, maxRefWidth, "...")
}

func isPlaceholder(text string) bool {
	switch text {
	case response.TextNotAvailable, response.TextNone, response.TextNoData, response.TextTooDeep:
		return true
	}
	return false
}
