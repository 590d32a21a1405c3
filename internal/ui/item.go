package ui

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
	runewidth "github.com/mattn/go-runewidth"
)

// Item is one feed card: the decoded record plus the display fields derived
// from it.
type Item struct {
	Key   string      // stable identity for cursor anchoring and removal
	Title string      // first card line
	Meta  string      // secondary line (author, date, tags)
	Body  string      // long-form content, shown in the detail view
	Data  interface{} // the decoded record
}

// Field names probed, in order, when deriving the display fields of a record.
var (
	keyFields   = []string{"id", "key", "slug", "uuid"}
	titleFields = []string{"title", "name", "subject", "summary", "headline"}
	bodyFields  = []string{"body", "content", "description", "text", "message"}
	authorField = []string{"author", "user", "owner", "by"}
	dateFields  = []string{"date", "created_at", "updated_at", "published", "time"}
)

// ItemFromRow derives a feed card from a decoded record. idx is the record's
// position in the dataset; it backs the identity key when the record carries
// none of its own.
func ItemFromRow(idx int, row interface{}) Item {
	it := Item{Data: row}

	rec, ok := row.(map[string]interface{})
	if !ok {
		it.Key = strconv.Itoa(idx)
		it.Title = stringifyField(row)
		return it
	}

	it.Key = firstField(rec, keyFields)
	if it.Key == "" {
		it.Key = strconv.Itoa(idx)
	}
	it.Title = firstField(rec, titleFields)
	it.Body = firstField(rec, bodyFields)
	it.Meta = metaLine(rec)

	if it.Title == "" {
		if it.Body != "" {
			it.Title = firstLine(it.Body)
		} else {
			it.Title = summarizeRecord(rec)
		}
	}
	return it
}

// ItemsFromRows derives cards for a whole dataset slice.
func ItemsFromRows(rows []interface{}) []Item {
	items := make([]Item, len(rows))
	for i, row := range rows {
		items[i] = ItemFromRow(i, row)
	}
	return items
}

// firstField returns the first non-empty probed field, stringified.
func firstField(rec map[string]interface{}, names []string) string {
	for _, name := range names {
		if v, ok := rec[name]; ok {
			if s := stringifyField(v); s != "" {
				return s
			}
		}
	}
	return ""
}

// metaLine assembles the secondary card line from author, date, and tags.
func metaLine(rec map[string]interface{}) string {
	var parts []string
	if author := firstField(rec, authorField); author != "" {
		parts = append(parts, author)
	}
	if date := firstField(rec, dateFields); date != "" {
		parts = append(parts, date)
	}
	if tags, ok := rec["tags"].([]interface{}); ok && len(tags) > 0 {
		names := make([]string, 0, len(tags))
		for _, t := range tags {
			if s := stringifyField(t); s != "" {
				names = append(names, "#"+s)
			}
		}
		if len(names) > 0 {
			parts = append(parts, strings.Join(names, " "))
		}
	}
	return strings.Join(parts, " · ")
}

// summarizeRecord renders a map without a title as "k: v" pairs in key
// order, so every card still shows something recognizable.
func summarizeRecord(rec map[string]interface{}) string {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+stringifyField(rec[k]))
		if len(parts) == 3 {
			break
		}
	}
	return strings.Join(parts, "  ")
}

func stringifyField(v interface{}) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case bool:
		return strconv.FormatBool(v)
	case float64:
		// JSON numbers decode as float64; render integers without the .0 tail.
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'g', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case map[string]interface{}, []interface{}:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", v))
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return strings.TrimSpace(s)
}

// renderCard renders one feed card as a two-line block: the title line and
// the meta/excerpt line. The list component adds the selection marker.
func renderCard(it Item, width int, noColor bool) string {
	if width < 4 {
		width = 4
	}
	inner := width - 2 // room for the marker prefix

	th := CurrentTheme()
	titleStyle := lipgloss.NewStyle().Bold(true)
	metaStyle := lipgloss.NewStyle()
	if !noColor {
		titleStyle = titleStyle.Foreground(th.Accent)
		metaStyle = metaStyle.Foreground(th.Muted)
	}

	title := truncateToWidth(it.Title, inner)
	second := it.Meta
	if second == "" {
		second = firstLine(it.Body)
	}
	second = truncateToWidth(second, inner)

	return titleStyle.Render(title) + "\n" + metaStyle.Render(second)
}

// truncateToWidth clips a plain string to a display width, ellipsized.
func truncateToWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}
