package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"
)

type Table struct {
	out     io.Writer
	headers []string
	rows    [][]string
	right   map[int]bool
	quiet   bool
}

func NewTable(headers []string, quiet bool) *Table {
	return NewTableWriter(os.Stdout, headers, quiet)
}

func NewTableWriter(out io.Writer, headers []string, quiet bool) *Table {
	return &Table{
		out:     out,
		headers: headers,
		rows:    make([][]string, 0),
		right:   make(map[int]bool),
		quiet:   quiet,
	}
}

func (t *Table) Append(row []string) {
	t.rows = append(t.rows, row)
}

// AlignRight right-aligns the given columns, for amounts and counts.
func (t *Table) AlignRight(cols ...int) {
	for _, c := range cols {
		t.right[c] = true
	}
}

func (t *Table) Len() int {
	return len(t.rows)
}

func (t *Table) Render() {
	if t.quiet {
		return
	}

	colWidths := make([]int, len(t.headers))
	for i, h := range t.headers {
		colWidths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if w := utf8.RuneCountInString(cell); i < len(colWidths) && w > colWidths[i] {
				colWidths[i] = w
			}
		}
	}

	printRow := func(cells []string) {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			if i >= len(colWidths) {
				parts[i] = cell
				continue
			}
			pad := strings.Repeat(" ", colWidths[i]-utf8.RuneCountInString(cell))
			if t.right[i] {
				parts[i] = pad + cell
			} else {
				parts[i] = cell + pad
			}
		}
		fmt.Fprintln(t.out, strings.TrimRight(strings.Join(parts, "  "), " "))
	}

	printRow(t.headers)
	for _, row := range t.rows {
		printRow(row)
	}
}
