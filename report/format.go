// Package report renders verification results.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/goccy/go-yaml"

	"github.com/reglet-dev/plugin-checksum/plugin/entities"
)

// Format selects how findings are rendered.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatCSV   Format = "csv"
	FormatYAML  Format = "yaml"
	FormatCount Format = "count"
)

// Formats lists every supported format.
func Formats() []Format {
	return []Format{FormatTable, FormatJSON, FormatCSV, FormatYAML, FormatCount}
}

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats() {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("invalid format %q: expected one of table, json, csv, yaml, count", s)
}

// Machine reports whether the format is meant for other programs, in which
// case human-oriented output belongs on stderr.
func (f Format) Machine() bool {
	return f != FormatTable
}

var columns = []string{"plugin_name", "file", "message"}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// Write renders r to w. Table and CSV output print nothing when there are
// no findings; JSON and YAML always print the full report.
func Write(w io.Writer, format Format, r *entities.Report) error {
	switch format {
	case FormatTable:
		return writeTable(w, r.Findings)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatCSV:
		return writeCSV(w, r.Findings)
	case FormatYAML:
		b, err := yaml.Marshal(r)
		if err != nil {
			return fmt.Errorf("encoding report: %w", err)
		}
		_, err = w.Write(b)
		return err
	case FormatCount:
		_, err := fmt.Fprintln(w, strconv.Itoa(len(r.Findings)))
		return err
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

func writeTable(w io.Writer, findings []entities.Finding) error {
	if len(findings) == 0 {
		return nil
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(columns...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, f := range findings {
		t.Row(f.PluginName, f.File, f.Message)
	}

	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func writeCSV(w io.Writer, findings []entities.Finding) error {
	if len(findings) == 0 {
		return nil
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return err
	}
	for _, f := range findings {
		if err := cw.Write([]string{f.PluginName, f.File, f.Message}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
