// Package present renders statistic tables for the terminal.
package present

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"fpl-league-stats/internal/stats"
)

// Formatter turns table values into display strings with grouped digits.
type Formatter struct {
	p *message.Printer
}

func NewFormatter(tag language.Tag) Formatter {
	return Formatter{p: message.NewPrinter(tag)}
}

func (f Formatter) Value(v any) string {
	switch n := v.(type) {
	case int:
		return f.p.Sprintf("%d", n)
	case float64:
		return f.p.Sprintf("%.2f", n)
	case string:
		return n
	case nil:
		return ""
	default:
		return fmt.Sprint(n)
	}
}

func numeric(v any) bool {
	switch v.(type) {
	case int, float64:
		return true
	}
	return false
}

// WriteTable draws t as an ASCII grid:
//
//	+------+--------+
//	| Team | Points |
//	+------+--------+
//	| Wolf |  1,204 |
//	+------+--------+
//
// Numbers are right-aligned, everything else left-aligned.
func WriteTable(w io.Writer, t *stats.Table, f Formatter) error {
	cells := make([][]string, len(t.Rows))
	right := make([]bool, len(t.Columns))
	widths := make([]int, len(t.Columns))
	for i, c := range t.Columns {
		widths[i] = utf8.RuneCountInString(c)
	}
	for r, row := range t.Rows {
		line := make([]string, len(t.Columns))
		line[0] = row.Label
		for i, v := range row.Values {
			if i+1 >= len(line) {
				break
			}
			line[i+1] = f.Value(v)
			if numeric(v) {
				right[i+1] = true
			}
		}
		for i, c := range line {
			widths[i] = max(widths[i], utf8.RuneCountInString(c))
		}
		cells[r] = line
	}

	var b strings.Builder
	rule := func() {
		b.WriteByte('+')
		for _, n := range widths {
			b.WriteString(strings.Repeat("-", n+2))
			b.WriteByte('+')
		}
		b.WriteByte('\n')
	}
	line := func(values []string, alignRight []bool) {
		b.WriteByte('|')
		for i, v := range values {
			pad := strings.Repeat(" ", widths[i]-utf8.RuneCountInString(v))
			b.WriteByte(' ')
			if alignRight != nil && alignRight[i] {
				b.WriteString(pad + v)
			} else {
				b.WriteString(v + pad)
			}
			b.WriteString(" |")
		}
		b.WriteByte('\n')
	}

	fmt.Fprintf(&b, "%s (gameweek %d)\n", t.Title, t.Gameweek)
	if t.Description != "" {
		b.WriteString(t.Description + "\n")
	}
	rule()
	line(t.Columns, nil)
	rule()
	for _, row := range cells {
		line(row, right)
	}
	if len(cells) > 0 {
		rule()
	}
	b.WriteByte('\n')

	_, err := io.WriteString(w, b.String())
	return err
}
