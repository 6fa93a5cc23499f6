// Package render prints interpreter answers and catalog listings as terminal tables.
package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"sales-assistant/internal/interpreter"
	"sales-assistant/internal/models"
)

type Renderer struct {
	out       io.Writer
	showQuery bool
}

func New(out io.Writer, showQuery bool) *Renderer {
	return &Renderer{out: out, showQuery: showQuery}
}

// Answer prints the answer line, the result table and, if enabled, the query trace.
func (r *Renderer) Answer(res *models.AnswerResult) {
	if res.Success {
		color.New(color.FgGreen, color.Bold).Fprintln(r.out, res.Answer)
	} else {
		color.New(color.FgRed).Fprintln(r.out, res.Answer)
	}

	if res.Fallback {
		color.New(color.FgYellow).Fprintln(r.out, "No country found in the question; showing total revenue instead.")
	}

	if res.Rows != nil {
		if len(res.Rows.Rows) == 0 {
			fmt.Fprintln(r.out, "No results found")
		} else {
			rows := make([][]string, 0, len(res.Rows.Rows))
			for _, row := range res.Rows.Rows {
				cells := make([]string, len(row))
				for i, v := range row {
					cells[i] = FormatCell(v)
				}
				rows = append(rows, cells)
			}
			r.Table(res.Rows.Columns, rows)
		}
	}

	if r.showQuery && res.QueryTrace != nil {
		color.New(color.FgCyan).Fprintln(r.out, "\nQuery:")
		fmt.Fprintln(r.out, *res.QueryTrace)
	}
}

// Catalog prints one table per entity.
func (r *Renderer) Catalog(entities []interpreter.Entity) {
	for _, e := range entities {
		color.New(color.FgYellow).Fprintf(r.out, "\n%s (%s)\n", e.Table, e.Name)

		rows := make([][]string, 0, len(e.Columns))
		for _, c := range e.Columns {
			var flags []string
			if c.PrimaryKey {
				flags = append(flags, "PK")
			}
			if c.Nullable {
				flags = append(flags, "NULL")
			}
			rows = append(rows, []string{c.Name, string(c.Type), strings.Join(flags, " "), c.References})
		}
		r.Table([]string{"Column", "Type", "Flags", "References"}, rows)
	}
}

// Heading prints a yellow section title.
func (r *Renderer) Heading(title string) {
	color.New(color.FgYellow).Fprintf(r.out, "\n%s\n", title)
}

func (r *Renderer) Table(header []string, rows [][]string) {
	table := tablewriter.NewWriter(r.out)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.AppendBulk(rows)
	table.Render()
}

// FormatCell renders a result scalar. Floats use two decimals; a null aggregate prints as "-".
func FormatCell(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "-"
	case float64:
		return strconv.FormatFloat(val, 'f', 2, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', 2, 32)
	case int64:
		return strconv.FormatInt(val, 10)
	case string:
		return val
	}
	return fmt.Sprintf("%v", v)
}
