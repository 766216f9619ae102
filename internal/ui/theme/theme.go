// Package theme holds the terminal styles used by command output.
package theme

import (
	"image/color"
	"strings"

	"charm.land/lipgloss/v2"
)

// Color palette
var (
	Primary   = lipgloss.Color("#8B5CF6") // Purple
	Secondary = lipgloss.Color("#14B8A6") // Teal
	Accent    = lipgloss.Color("#F97316") // Orange
	Success   = lipgloss.Color("#22C55E") // Green
	Error     = lipgloss.Color("#F43F5E") // Rose
	TextDim   = lipgloss.Color("#94A3B8") // Slate
	Border    = lipgloss.Color("#334155") // Slate
)

var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(Secondary)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)

	Warning = lipgloss.NewStyle().
		Foreground(Accent).
		Bold(true)

	Correct = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	Incorrect = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	Rule = lipgloss.NewStyle().
		Foreground(Border)
)

// Separator renders a horizontal rule of width w.
func Separator(w int) string {
	return Rule.Render(strings.Repeat("─", w))
}

// Level colors a 0..1 score: green when high, orange in the middle, rose
// when low.
func Level(v float64) color.Color {
	switch {
	case v >= 0.75:
		return Success
	case v >= 0.5:
		return Accent
	default:
		return Error
	}
}

// Column is one column of a Table.
type Column struct {
	Title string
	Width int
	Right bool
}

// Table renders rows as fixed-width columns. styles, when non-nil, may
// return a style for a cell; a nil style renders plain.
type Table struct {
	Columns []Column
	Rows    [][]string
	Styles  func(row, col int) *lipgloss.Style
}

// Render returns the table as text with a header and rule.
func (t Table) Render() string {
	var b strings.Builder
	total := 0
	for i, c := range t.Columns {
		if i > 0 {
			b.WriteString("  ")
			total += 2
		}
		b.WriteString(Header.Render(cell(c, c.Title)))
		total += c.Width
	}
	b.WriteString("\n")
	b.WriteString(Separator(total))
	b.WriteString("\n")

	for r, row := range t.Rows {
		for i, c := range t.Columns {
			if i > 0 {
				b.WriteString("  ")
			}
			v := ""
			if i < len(row) {
				v = row[i]
			}
			text := cell(c, v)
			if t.Styles != nil {
				if st := t.Styles(r, i); st != nil {
					text = st.Render(text)
				}
			}
			b.WriteString(text)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func cell(c Column, v string) string {
	r := []rune(v)
	if len(r) > c.Width {
		if c.Width > 1 {
			v = string(r[:c.Width-1]) + "…"
		} else {
			v = string(r[:c.Width])
		}
	}
	pad := c.Width - len([]rune(v))
	if pad <= 0 {
		return v
	}
	if c.Right {
		return strings.Repeat(" ", pad) + v
	}
	return v + strings.Repeat(" ", pad)
}
