// Package export renders list snapshots as downloadable files.
package export

import "fmt"

// Column is one exported field: Key selects the value, Label heads the column.
type Column struct {
	Key   string
	Label string
}

// Dataset is tabular export content.
type Dataset struct {
	Title   string
	Columns []Column
	Rows    []map[string]string
	// Footer is printed under the table, e.g. the pagination summary.
	Footer string
}

func (d Dataset) validate() error {
	if len(d.Columns) == 0 {
		return fmt.Errorf("export requires at least one column")
	}
	return nil
}

func (c Column) heading() string {
	if c.Label != "" {
		return c.Label
	}
	return c.Key
}

// Exporter renders a dataset into one file format.
type Exporter interface {
	Render(data Dataset) ([]byte, error)
	ContentType() string
	Extension() string
}

// ForFormat returns the exporter for "csv" or "pdf".
func ForFormat(format string) (Exporter, error) {
	switch format {
	case "", "csv":
		return NewCSVExporter(), nil
	case "pdf":
		return NewPDFExporter(), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}
