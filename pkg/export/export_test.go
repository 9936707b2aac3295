package export

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Title:   "Intro grades",
		Headers: []string{"Student ID", "Student", "Grade"},
		Rows: [][]string{
			{"s1", "Alice", "85"},
			{"s2", "Bob, Jr."},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.Equal(t, "Student ID,Student,Grade\ns1,Alice,85\ns2,\"Bob, Jr.\",\n", string(out))
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestForFormat(t *testing.T) {
	r, err := ForFormat("")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", r.ContentType())

	r, err = ForFormat(" PDF ")
	require.NoError(t, err)
	assert.Equal(t, "pdf", r.Extension())

	_, err = ForFormat("xlsx")
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}
