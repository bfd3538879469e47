// Package report renders bracket groups for people and for other programs.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"bif/internal/bracket"
)

// TimestampLayout is the capture time format used in structured output.
const TimestampLayout = "2006-01-02T15:04:05"

// Format selects an output renderer.
type Format string

const (
	FormatText  Format = "text"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatTable Format = "table"
)

// Formats lists the supported formats.
func Formats() []Format {
	return []Format{FormatText, FormatJSON, FormatYAML, FormatTable}
}

// ParseFormat resolves a format name.
func ParseFormat(name string) (Format, error) {
	normalized := Format(strings.ToLower(strings.TrimSpace(name)))
	if slices.Contains(Formats(), normalized) {
		return normalized, nil
	}
	return "", fmt.Errorf("unsupported output format %q (want text, json, yaml, or table)", name)
}

// Entry is one group member in structured output.
type Entry struct {
	RelFilepath   string  `json:"rel_filepath" yaml:"rel_filepath"`
	ExposureValue float64 `json:"exposure_value" yaml:"exposure_value"`
	Timestamp     string  `json:"timestamp" yaml:"timestamp"`
}

// GroupView is one group in structured output.
type GroupView struct {
	Type    string  `json:"type" yaml:"type"`
	Entries []Entry `json:"entries" yaml:"entries"`
}

// Sorted returns groups ordered by their first member's identifier. Members
// keep their capture order.
func Sorted(groups []bracket.Group) []bracket.Group {
	out := slices.Clone(groups)
	slices.SortStableFunc(out, func(a, b bracket.Group) int {
		return strings.Compare(firstID(a), firstID(b))
	})
	return out
}

func firstID(g bracket.Group) string {
	if len(g.Members) == 0 {
		return ""
	}
	return g.Members[0].ID
}

// Views converts groups into their structured output shape.
func Views(groups []bracket.Group) []GroupView {
	views := make([]GroupView, 0, len(groups))
	for _, g := range Sorted(groups) {
		view := GroupView{Type: g.Kind.String(), Entries: make([]Entry, 0, len(g.Members))}
		for _, m := range g.Members {
			view.Entries = append(view.Entries, Entry{
				RelFilepath:   m.ID,
				ExposureValue: m.ExposureValue,
				Timestamp:     m.Timestamp.Format(TimestampLayout),
			})
		}
		views = append(views, view)
	}
	return views
}

// Render writes groups to w in the requested format.
func Render(w io.Writer, format Format, groups []bracket.Group) error {
	switch format {
	case FormatText, "":
		return renderText(w, groups)
	case FormatJSON:
		return WriteJSON(w, Views(groups))
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(Views(groups)); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case FormatTable:
		_, err := io.WriteString(w, renderTable(groups)+"\n")
		return err
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

// WriteJSON encodes v as two-space indented JSON followed by a newline.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

func renderText(w io.Writer, groups []bracket.Group) error {
	for _, g := range Sorted(groups) {
		if _, err := fmt.Fprintf(w, "%s %s\n", g.Kind, strings.Join(g.IDs(), " ")); err != nil {
			return err
		}
	}
	return nil
}

func renderTable(groups []bracket.Group) string {
	title := cases.Title(language.Und)

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Pattern", "File", "EV", "Captured"})
	for i, g := range Sorted(groups) {
		for _, m := range g.Members {
			tw.AppendRow(table.Row{
				strconv.Itoa(i + 1),
				title.String(g.Kind.String()),
				m.ID,
				formatEV(m.ExposureValue),
				m.Timestamp.Format(TimestampLayout),
			})
		}
		if i < len(groups)-1 {
			tw.AppendSeparator()
		}
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AutoMerge: true},
		{Number: 2, AutoMerge: true},
		{Number: 4, Align: text.AlignRight},
	})
	return tw.Render()
}

func formatEV(ev float64) string {
	if ev == 0 {
		return "0"
	}
	formatted := strconv.FormatFloat(ev, 'f', -1, 64)
	if ev > 0 {
		return "+" + formatted
	}
	return formatted
}
