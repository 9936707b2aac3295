package export

import (
	"errors"
	"fmt"
	"strings"
)

// Format identifies an output encoding.
type Format string

const (
	FormatCSV Format = "csv"
	FormatPDF Format = "pdf"
)

// ErrUnsupportedFormat is returned by ForFormat for unknown formats.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Dataset defines tabular export content. Rows are positional and follow Headers.
type Dataset struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// Renderer turns a dataset into a downloadable document.
type Renderer interface {
	Render(data Dataset) ([]byte, error)
	ContentType() string
	Extension() string
}

// ForFormat returns the renderer for format. Empty defaults to CSV.
func ForFormat(format string) (Renderer, error) {
	switch Format(strings.ToLower(strings.TrimSpace(format))) {
	case "", FormatCSV:
		return NewCSVExporter(), nil
	case FormatPDF:
		return NewPDFExporter(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
