package ui

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	"github.com/gomarkdown/markdown/parser"
	runewidth "github.com/mattn/go-runewidth"
)

// RenderMarkdown renders markdown source as terminal text wrapped to width.
// noColor suppresses all ANSI styling so the output is plain text.
func RenderMarkdown(src string, width int, noColor bool) string {
	if width < 1 {
		width = 1
	}
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.NoEmptyLineBeforeBlock)
	doc := markdown.Parse([]byte(src), p)

	r := &markdownRenderer{width: width, noColor: noColor, theme: CurrentTheme()}
	r.renderBlocks(doc, "")
	return strings.TrimRight(r.out.String(), "\n")
}

// markdownRenderer walks the parsed AST and accumulates styled lines. Blocks
// are separated by one blank line; inline styling is span-based so wrapped
// lines never split an escape sequence.
type markdownRenderer struct {
	width   int
	noColor bool
	theme   Theme
	out     strings.Builder
}

// inlineSpan is a run of inline text sharing one style.
type inlineSpan struct {
	text  string
	style lipgloss.Style
}

// fragment is a piece of a word; words keep their fragments so that
// adjacent spans without whitespace ("`code`." or bold mid-word) stay glued.
type fragment struct {
	text  string
	style lipgloss.Style
}

type word []fragment

func wordWidth(w word) int {
	total := 0
	for _, f := range w {
		total += runewidth.StringWidth(f.text)
	}
	return total
}

func (r *markdownRenderer) startBlock() {
	if r.out.Len() > 0 {
		r.out.WriteString("\n")
	}
}

func (r *markdownRenderer) writeLines(lines []string, indent string) {
	for _, line := range lines {
		r.out.WriteString(indent)
		r.out.WriteString(line)
		r.out.WriteString("\n")
	}
}

func (r *markdownRenderer) renderBlocks(container ast.Node, indent string) {
	avail := r.width - len(indent)
	if avail < 1 {
		avail = 1
	}
	for _, node := range container.GetChildren() {
		switch n := node.(type) {
		case *ast.Heading:
			r.startBlock()
			r.writeLines(r.wrapInline(n, avail, r.headingStyle(n.Level)), indent)
		case *ast.Paragraph:
			r.startBlock()
			r.writeLines(r.wrapInline(n, avail, r.bodyStyle()), indent)
		case *ast.List:
			r.startBlock()
			r.renderList(n, indent)
		case *ast.CodeBlock:
			r.startBlock()
			r.renderCodeBlock(n, indent)
		case *ast.BlockQuote:
			r.startBlock()
			r.renderBlockQuote(n, indent)
		case *ast.HorizontalRule:
			r.startBlock()
			r.writeLines([]string{r.mutedStyle().Render(strings.Repeat("─", avail))}, indent)
		case *ast.HTMLBlock:
			// raw HTML has no terminal rendering
		default:
			r.renderBlocks(node, indent)
		}
	}
}

func (r *markdownRenderer) renderList(list *ast.List, indent string) {
	ordered := list.ListFlags&ast.ListTypeOrdered != 0
	for i, child := range list.GetChildren() {
		item, ok := child.(*ast.ListItem)
		if !ok {
			continue
		}
		marker := "• "
		if ordered {
			marker = fmt.Sprintf("%d. ", i+1)
		}
		r.renderListItem(item, indent, marker)
	}
}

// renderListItem renders the item's paragraphs with the marker on the first
// line and a hanging indent on the rest; nested lists indent one level.
func (r *markdownRenderer) renderListItem(item *ast.ListItem, indent, marker string) {
	markerW := runewidth.StringWidth(marker)
	cont := strings.Repeat(" ", markerW)
	avail := r.width - len(indent) - markerW
	if avail < 1 {
		avail = 1
	}

	first := true
	for _, child := range item.GetChildren() {
		switch n := child.(type) {
		case *ast.List:
			r.renderList(n, indent+cont)
		default:
			for _, line := range r.wrapInline(n, avail, r.bodyStyle()) {
				prefix := cont
				if first {
					prefix = r.accentStyle().Render(marker)
					first = false
				}
				r.out.WriteString(indent + prefix + line + "\n")
			}
		}
	}
}

func (r *markdownRenderer) renderCodeBlock(block *ast.CodeBlock, indent string) {
	style := r.codeStyle()
	avail := r.width - len(indent) - 2
	if avail < 1 {
		avail = 1
	}
	lines := strings.Split(strings.TrimRight(string(block.Literal), "\n"), "\n")
	for _, line := range lines {
		r.out.WriteString(indent + "  " + style.Render(truncateToWidth(line, avail)) + "\n")
	}
}

func (r *markdownRenderer) renderBlockQuote(quote *ast.BlockQuote, indent string) {
	avail := r.width - len(indent) - 2
	if avail < 1 {
		avail = 1
	}
	prefix := r.mutedStyle().Render("> ")
	for _, child := range quote.GetChildren() {
		for _, line := range r.wrapInline(child, avail, r.mutedStyle()) {
			r.out.WriteString(indent + prefix + line + "\n")
		}
	}
}

// wrapInline collects the container's inline children into styled spans and
// word-wraps them to width.
func (r *markdownRenderer) wrapInline(container ast.Node, width int, base lipgloss.Style) []string {
	var spans []inlineSpan
	for _, child := range container.GetChildren() {
		r.collectInline(child, &spans, base)
	}
	words := splitSpans(spans)
	if len(words) == 0 {
		return nil
	}
	return layoutWords(words, width)
}

func (r *markdownRenderer) collectInline(node ast.Node, spans *[]inlineSpan, style lipgloss.Style) {
	switch n := node.(type) {
	case *ast.Text:
		*spans = append(*spans, inlineSpan{text: string(n.Literal), style: style})
	case *ast.Code:
		*spans = append(*spans, inlineSpan{text: string(n.Literal), style: r.codeStyle()})
	case *ast.Emph:
		st := style
		if !r.noColor {
			st = st.Italic(true)
		}
		for _, c := range n.GetChildren() {
			r.collectInline(c, spans, st)
		}
	case *ast.Strong:
		st := style
		if !r.noColor {
			st = st.Bold(true)
		}
		for _, c := range n.GetChildren() {
			r.collectInline(c, spans, st)
		}
	case *ast.Del:
		st := style
		if !r.noColor {
			st = st.Strikethrough(true)
		}
		for _, c := range n.GetChildren() {
			r.collectInline(c, spans, st)
		}
	case *ast.Link:
		for _, c := range n.GetChildren() {
			r.collectInline(c, spans, style)
		}
		if len(n.Destination) > 0 {
			*spans = append(*spans, inlineSpan{text: " (" + string(n.Destination) + ")", style: r.mutedStyle()})
		}
	case *ast.Image:
		*spans = append(*spans, inlineSpan{text: "[image]", style: r.mutedStyle()})
	case *ast.Hardbreak, *ast.Softbreak:
		*spans = append(*spans, inlineSpan{text: " ", style: style})
	case *ast.HTMLSpan:
		// dropped
	default:
		for _, c := range node.GetChildren() {
			r.collectInline(c, spans, style)
		}
	}
}

// splitSpans tokenizes styled spans into words. Whitespace ends a word; a
// span boundary only ends a fragment, so mixed-style words survive intact.
func splitSpans(spans []inlineSpan) []word {
	var words []word
	var cur word
	var frag strings.Builder
	var fragStyle lipgloss.Style
	fragOpen := false

	closeFrag := func() {
		if fragOpen && frag.Len() > 0 {
			cur = append(cur, fragment{text: frag.String(), style: fragStyle})
		}
		frag.Reset()
		fragOpen = false
	}
	closeWord := func() {
		closeFrag()
		if len(cur) > 0 {
			words = append(words, cur)
			cur = nil
		}
	}

	for _, sp := range spans {
		for _, ch := range sp.text {
			if ch == ' ' || ch == '\n' || ch == '\t' {
				closeWord()
				continue
			}
			if !fragOpen {
				fragOpen = true
				fragStyle = sp.style
			}
			frag.WriteRune(ch)
		}
		closeFrag()
	}
	closeWord()
	return words
}

// layoutWords greedily packs words into lines of at most width cells. A
// single word wider than the line still gets a line of its own.
func layoutWords(words []word, width int) []string {
	var lines []string
	var line strings.Builder
	lineW := 0

	flush := func() {
		lines = append(lines, line.String())
		line.Reset()
		lineW = 0
	}

	for _, w := range words {
		wl := wordWidth(w)
		if lineW > 0 && lineW+1+wl > width {
			flush()
		}
		if lineW > 0 {
			line.WriteString(" ")
			lineW++
		}
		for _, f := range w {
			line.WriteString(f.style.Render(f.text))
		}
		lineW += wl
	}
	if line.Len() > 0 {
		flush()
	}
	return lines
}

func (r *markdownRenderer) headingStyle(level int) lipgloss.Style {
	if r.noColor {
		return lipgloss.NewStyle()
	}
	st := lipgloss.NewStyle().Bold(true)
	if level <= 1 {
		return st.Foreground(r.theme.Accent)
	}
	return st.Foreground(r.theme.Text)
}

func (r *markdownRenderer) bodyStyle() lipgloss.Style {
	if r.noColor {
		return lipgloss.NewStyle()
	}
	return lipgloss.NewStyle().Foreground(r.theme.Text)
}

func (r *markdownRenderer) mutedStyle() lipgloss.Style {
	if r.noColor {
		return lipgloss.NewStyle()
	}
	return lipgloss.NewStyle().Foreground(r.theme.Muted)
}

func (r *markdownRenderer) codeStyle() lipgloss.Style {
	if r.noColor {
		return lipgloss.NewStyle()
	}
	return lipgloss.NewStyle().Foreground(r.theme.StatusSuccess)
}

func (r *markdownRenderer) accentStyle() lipgloss.Style {
	if r.noColor {
		return lipgloss.NewStyle()
	}
	return lipgloss.NewStyle().Foreground(r.theme.Accent)
}
