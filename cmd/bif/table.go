package main

import (
	"slices"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// renderTable draws a rounded table. Columns listed in numeric (1-based) are
// right-aligned; a last row whose first cell is "total" gets a footer rule.
func renderTable(headers []string, rows [][]string, numeric ...int) string {
	if len(headers) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(toRow(headers))

	if n := len(rows); n > 0 && rows[n-1][0] == "total" {
		tw.AppendRows(toRows(rows[:n-1]))
		tw.AppendFooter(toRow(rows[n-1]))
	} else {
		tw.AppendRows(toRows(rows))
	}

	configs := make([]table.ColumnConfig, 0, len(headers))
	for i := range headers {
		cfg := table.ColumnConfig{Number: i + 1, AlignHeader: text.AlignLeft, AlignFooter: text.AlignLeft}
		if slices.Contains(numeric, i+1) {
			cfg.Align = text.AlignRight
			cfg.AlignFooter = text.AlignRight
		}
		configs = append(configs, cfg)
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}

func toRow(cells []string) table.Row {
	row := make(table.Row, len(cells))
	for i, c := range cells {
		row[i] = c
	}
	return row
}

func toRows(rows [][]string) []table.Row {
	out := make([]table.Row, len(rows))
	for i, r := range rows {
		out[i] = toRow(r)
	}
	return out
}
