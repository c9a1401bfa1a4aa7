package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Title: "Pending approvals",
		Columns: []Column{
			{Key: "ref", Label: "Reference"},
			{Key: "client", Label: "Client", Width: 2},
			{Key: "total", Label: "Total", Align: "R"},
		},
		Rows: []map[string]string{
			{"ref": "QT-202401-1", "client": "Acme, Inc.", "total": "1500.00"},
			{"ref": "RFP-202401-2", "client": "", "total": "20.50"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Reference,Client,Total", lines[0])
	assert.Equal(t, `QT-202401-1,"Acme, Inc.",1500.00`, lines[1])
	assert.Equal(t, "RFP-202401-2,,20.50", lines[2])
}

func TestCSVExporterRequiresColumns(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestPDFExporterRenderDocument(t *testing.T) {
	doc := Document{
		Title:    "QUOTATION",
		Subtitle: "QT-202401-1",
		Fields:   []Field{{Label: "Client", Value: "Acme"}, {Label: "Route", Value: "Manila -> Cebu"}},
		Items:    sampleDataset(),
		Totals:   []Field{{Label: "Total (PHP)", Value: "1520.50"}},
		Footer:   "Valid for 30 days.",
	}
	out, err := NewPDFExporter().RenderDocument(doc)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestColumnWidthsHonourWeights(t *testing.T) {
	widths := columnWidths([]Column{{Width: 1}, {Width: 3}}, 100)
	assert.InDelta(t, 25, widths[0], 0.001)
	assert.InDelta(t, 75, widths[1], 0.001)
}
