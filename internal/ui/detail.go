package ui

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/pagekit/pkg/loader"
)

// DetailModel shows one item full screen: title, meta line, the body
// rendered as markdown, and the decoded record as YAML underneath.
type DetailModel struct {
	item    Item
	lines   []string
	top     int
	width   int
	height  int
	focused bool
	noColor bool
}

// NewDetailModel builds the detail view for an item.
func NewDetailModel(item Item, noColor bool) *DetailModel {
	d := &DetailModel{item: item, noColor: noColor}
	d.rebuild()
	return d
}

// Init implements ChildModel.
func (d *DetailModel) Init() tea.Cmd {
	return nil
}

// Update scrolls the view. Back navigation is emitted as a message so the
// root can pop the stack.
func (d *DetailModel) Update(msg tea.Msg) (ChildModel, tea.Cmd) {
	key, ok := msg.(tea.KeyPressMsg)
	if !ok {
		return d, nil
	}

	switch key.String() {
	case "up", "k", "ctrl+p":
		d.scroll(-1)
	case "down", "j", "ctrl+n":
		d.scroll(1)
	case "pgup", "ctrl+u", "alt+v":
		d.scroll(-d.viewportHeight())
	case "pgdown", "ctrl+d", "ctrl+v", "space":
		d.scroll(d.viewportHeight())
	case "home", "g", "alt+<":
		d.top = 0
	case "end", "G", "alt+>":
		d.top = d.maxTop()
	case "esc", "h", "left", "q", "ctrl+b":
		return d, func() tea.Msg { return NavigateBackMsg{} }
	}
	return d, nil
}

func (d *DetailModel) scroll(delta int) {
	d.top += delta
	if d.top > d.maxTop() {
		d.top = d.maxTop()
	}
	if d.top < 0 {
		d.top = 0
	}
}

func (d *DetailModel) maxTop() int {
	m := len(d.lines) - d.viewportHeight()
	if m < 0 {
		m = 0
	}
	return m
}

func (d *DetailModel) viewportHeight() int {
	h := d.height
	if h <= 0 {
		h = 24
	}
	// one line is reserved for the hint at the bottom
	if h > 1 {
		h--
	}
	return h
}

// rebuild renders the item into scrollable lines at the current width.
func (d *DetailModel) rebuild() {
	w := d.width
	if w <= 0 {
		w = 80
	}

	titleStyle := lipgloss.NewStyle()
	metaStyle := lipgloss.NewStyle()
	headingStyle := lipgloss.NewStyle()
	recordStyle := lipgloss.NewStyle()
	sepStyle := lipgloss.NewStyle()
	if !d.noColor {
		th := CurrentTheme()
		titleStyle = titleStyle.Bold(true).Foreground(th.Accent)
		metaStyle = metaStyle.Foreground(th.Muted)
		headingStyle = headingStyle.Bold(true).Foreground(th.Text)
		recordStyle = recordStyle.Foreground(th.Muted)
		sepStyle = sepStyle.Foreground(th.SeparatorColor)
	}

	var lines []string
	title := d.item.Title
	if title == "" {
		title = d.item.Key
	}
	lines = append(lines, titleStyle.Render(truncateToWidth(title, w)))
	if d.item.Meta != "" {
		lines = append(lines, metaStyle.Render(truncateToWidth(d.item.Meta, w)))
	}
	lines = append(lines, sepStyle.Render(repeatToWidth("─", w)), "")

	if body := strings.TrimSpace(d.item.Body); body != "" {
		md := RenderMarkdown(body, w, d.noColor)
		if md != "" {
			lines = append(lines, strings.Split(md, "\n")...)
			lines = append(lines, "")
		}
	}

	if d.item.Data != nil {
		lines = append(lines, headingStyle.Render("Record"))
		// Decode nested base64/JSON payloads so the raw record is readable
		raw, err := yaml.Marshal(loader.RecursiveDecode(d.item.Data))
		if err == nil {
			for _, ln := range strings.Split(strings.TrimRight(string(raw), "\n"), "\n") {
				lines = append(lines, recordStyle.Render(truncateToWidth("  "+ln, w)))
			}
		}
	}

	d.lines = lines
	if d.top > d.maxTop() {
		d.top = d.maxTop()
	}
}

// View renders the visible slice of lines plus the bottom hint.
func (d *DetailModel) View() string {
	vp := d.viewportHeight()
	end := d.top + vp
	if end > len(d.lines) {
		end = len(d.lines)
	}
	start := d.top
	if start > end {
		start = end
	}

	visible := make([]string, 0, vp+1)
	visible = append(visible, d.lines[start:end]...)
	for len(visible) < vp {
		visible = append(visible, "")
	}

	hint := "← back · ↑/↓ scroll"
	if !d.noColor {
		hint = lipgloss.NewStyle().Foreground(CurrentTheme().Muted).Render(hint)
	}
	visible = append(visible, hint)
	return strings.Join(visible, "\n")
}

// Title implements ModelWithTitle.
func (d *DetailModel) Title() string {
	if d.item.Title != "" {
		return d.item.Title
	}
	return d.item.Key
}

// SetSize implements ModelWithSize.
func (d *DetailModel) SetSize(width, height int) {
	changed := width != d.width
	d.width = width
	d.height = height
	if changed {
		d.rebuild()
	}
	if d.top > d.maxTop() {
		d.top = d.maxTop()
	}
}

// Focus implements ModelWithFocus.
func (d *DetailModel) Focus() tea.Cmd {
	d.focused = true
	return nil
}

// Blur implements ModelWithFocus.
func (d *DetailModel) Blur() {
	d.focused = false
}

// Focused implements ModelWithFocus.
func (d *DetailModel) Focused() bool {
	return d.focused
}
