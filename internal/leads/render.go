package leads

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/five82/leaddeck/internal/crm"
)

var wellKnownColumns = []string{
	"id", "name", "account_name", "first_name", "last_name",
	"email", "phone", "status", "company", "created_at",
}

// Columns returns the union of field names across leads: well-known fields
// first in a fixed order, then the rest sorted.
func Columns(leads []crm.Lead) []string {
	seen := make(map[string]bool)
	for _, lead := range leads {
		for k := range lead.Fields {
			seen[k] = true
		}
	}
	cols := make([]string, 0, len(seen))
	for _, name := range wellKnownColumns {
		if seen[name] {
			cols = append(cols, name)
			delete(seen, name)
		}
	}
	rest := make([]string, 0, len(seen))
	for name := range seen {
		rest = append(rest, name)
	}
	sort.Strings(rest)
	return append(cols, rest...)
}

// Title is the heading used for a lead.
func Title(lead crm.Lead) string {
	if name := lead.Name(); name != "" {
		return name
	}
	if id := lead.ID(); id != 0 {
		return fmt.Sprintf("Lead %d", id)
	}
	return "Lead"
}

// Markdown renders every field of lead as a markdown table.
func Markdown(lead crm.Lead) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", Title(lead))
	cols := Columns([]crm.Lead{lead})
	if len(cols) == 0 {
		b.WriteString("_No fields._\n")
		return b.String()
	}
	b.WriteString("| Field | Value |\n| --- | --- |\n")
	for _, name := range cols {
		fmt.Fprintf(&b, "| %s | %s |\n", escapeCell(name), escapeCell(lead.String(name)))
	}
	return b.String()
}

// RenderMarkdown renders Markdown(lead) for a terminal of the given width.
func RenderMarkdown(lead crm.Lead, width int, dark bool) (string, error) {
	style := "light"
	if dark {
		style = "dark"
	}
	if width <= 0 {
		width = 80
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStylePath(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("create renderer: %w", err)
	}
	out, err := renderer.Render(Markdown(lead))
	if err != nil {
		return "", fmt.Errorf("render lead: %w", err)
	}
	return out, nil
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
