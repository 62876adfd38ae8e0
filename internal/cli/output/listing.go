package output

import (
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// Listing is the columnar result of a list command. It renders as a
// borderless table for terminals, or as an array of objects keyed by
// snake_cased column name for the structured formats.
type Listing struct {
	columns []string
	rows    [][]string
}

// NewListing creates an empty listing with the given column names.
func NewListing(columns ...string) *Listing {
	return &Listing{columns: columns}
}

// Append adds one row. Missing trailing cells render empty.
func (l *Listing) Append(cells ...string) {
	l.rows = append(l.rows, cells)
}

// Render writes the listing in the requested format.
func (l *Listing) Render(w io.Writer, format Format) error {
	switch format {
	case FormatJSON:
		return PrintJSON(w, l.records())
	case FormatYAML:
		return PrintYAML(w, l.records())
	default:
		return l.renderTable(w)
	}
}

func (l *Listing) renderTable(w io.Writer) error {
	table := tablewriter.NewWriter(w)
	table.SetHeader(l.columns)

	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)

	for _, row := range l.rows {
		table.Append(row)
	}
	table.Render()
	return nil
}

// records converts the rows into maps for JSON/YAML output.
func (l *Listing) records() []map[string]string {
	records := make([]map[string]string, 0, len(l.rows))
	for _, row := range l.rows {
		record := make(map[string]string, len(l.columns))
		for i, column := range l.columns {
			value := ""
			if i < len(row) {
				value = row[i]
			}
			record[columnKey(column)] = value
		}
		records = append(records, record)
	}
	return records
}

func columnKey(column string) string {
	return strings.ReplaceAll(strings.ToLower(column), " ", "_")
}
