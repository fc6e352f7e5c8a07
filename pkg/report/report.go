package report

import (
	"fmt"
	"io"
	"strings"

	"emperror.dev/errors"
	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatText       Format = "text"
	FormatJSON       Format = "json"
	FormatYAML       Format = "yaml"
	FormatPrometheus Format = "prom"

	dash = "     --    "
)

// ParseFormat validates an output format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatYAML, FormatPrometheus:
		return f, nil
	}
	return "", errors.Errorf("unsupported output format %q", s)
}

// Usage is the memory usage of one scope in bytes. Nil fields were not
// measured.
type Usage struct {
	Current *uint64 `json:"current_bytes,omitempty" yaml:"current_bytes,omitempty"`
	Peak    *uint64 `json:"peak_bytes,omitempty" yaml:"peak_bytes,omitempty"`
}

// Report gathers the usage of a measured workload, the notebook process and
// all jupyter processes. Kind names the workload row.
type Report struct {
	Kind     string `json:"kind,omitempty" yaml:"kind,omitempty"`
	Workload *Usage `json:"workload,omitempty" yaml:"workload,omitempty"`
	Notebook *Usage `json:"notebook,omitempty" yaml:"notebook,omitempty"`
	Jupyter  *Usage `json:"jupyter,omitempty" yaml:"jupyter,omitempty"`
}

type row struct {
	scope string
	usage *Usage
}

func (r *Report) rows() []row {
	var rows []row
	if r.Workload != nil {
		kind := r.Kind
		if kind == "" {
			kind = "command"
		}
		rows = append(rows, row{kind, r.Workload})
	}
	if r.Notebook != nil {
		rows = append(rows, row{"notebook", r.Notebook})
	}
	if r.Jupyter != nil {
		rows = append(rows, row{"jupyter", r.Jupyter})
	}
	return rows
}

// Write renders the report in the given format. table only applies to text.
func (r *Report) Write(w io.Writer, format Format, table bool) error {
	switch format {
	case FormatText, "":
		if table {
			return r.WriteTable(w)
		}
		return r.WriteText(w)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(r)
	case FormatPrometheus:
		return r.WritePrometheus(w)
	}
	return errors.Errorf("unsupported output format %q", format)
}

// WriteText prints the compact form. Peaks are only shown when a workload
// was measured.
func (r *Report) WriteText(w io.Writer) error {
	rows := r.rows()
	if len(rows) == 0 {
		return nil
	}
	withPeak := r.Workload != nil

	width := 0
	for _, row := range rows {
		if len(row.scope) > width {
			width = len(row.scope)
		}
	}

	for i, row := range rows {
		prefix := "RAM usage: "
		if i > 0 {
			prefix = strings.Repeat(" ", len(prefix))
		}

		var line string
		switch {
		case len(rows) == 1 && withPeak:
			line = fmt.Sprintf("%s: %s / %s", row.scope,
				strings.TrimSpace(current(row.usage)), strings.TrimSpace(peak(row.usage)))
		case len(rows) == 1:
			line = fmt.Sprintf("%s: %s", row.scope, strings.TrimSpace(current(row.usage)))
		case withPeak:
			line = fmt.Sprintf("%-*s %-11s / %-11s", width+1, row.scope+":", current(row.usage), peak(row.usage))
		default:
			line = fmt.Sprintf("%-*s %s", width+1, row.scope+":", current(row.usage))
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(prefix+line, " ")); err != nil {
			return err
		}
	}
	return nil
}

// WriteTable prints the report as a table with current and peak columns.
func (r *Report) WriteTable(w io.Writer) error {
	rows := r.rows()
	if len(rows) == 0 {
		return nil
	}

	lines := []string{
		"RAM usage |   current   |     peak     |",
		"----------------------------------------",
	}
	for _, row := range rows {
		lines = append(lines, fmt.Sprintf(" %-8s | %-11s | %-11s  |", row.scope, current(row.usage), peak(row.usage)))
	}
	_, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")
	return err
}

func current(u *Usage) string {
	if u.Current == nil {
		return dash
	}
	return FormatBytes(*u.Current)
}

func peak(u *Usage) string {
	if u.Peak == nil {
		return dash
	}
	return FormatBytes(*u.Peak)
}
