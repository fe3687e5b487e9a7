package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Title:   "User Roster",
		Headers: []string{"ID", "Name", "Email"},
		Rows: []map[string]string{
			{"ID": "1", "Name": "Alice Admin", "Email": "alice@example.com"},
			{"ID": "2", "Name": "Bob Brown", "Email": "bob@example.com"},
		},
	}
}

func TestRenderCSV(t *testing.T) {
	payload, err := Render(sampleDataset(), FormatCSV)
	require.NoError(t, err)

	content := string(payload)
	assert.Contains(t, content, "ID,Name,Email")
	assert.Contains(t, content, "1,Alice Admin,alice@example.com")
	assert.Contains(t, content, "2,Bob Brown,bob@example.com")
}

func TestRenderPDF(t *testing.T) {
	payload, err := Render(sampleDataset(), FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(payload[:4]))
}

func TestRenderRejectsUnknownFormat(t *testing.T) {
	_, err := Render(sampleDataset(), Format("xlsx"))
	require.Error(t, err)
}

func TestRenderRequiresHeaders(t *testing.T) {
	_, err := Render(Dataset{Title: "empty"}, FormatCSV)
	require.Error(t, err)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "text/csv", FormatCSV.ContentType())
	assert.Equal(t, "application/pdf", FormatPDF.ContentType())
}
