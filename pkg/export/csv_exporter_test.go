package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Headers: []string{"Student ID", "Full Name", "Email"},
		Rows: []map[string]string{
			{"Student ID": "7", "Full Name": "Zoe Diaz", "Email": "zoe@example.com"},
			{"Student ID": "9", "Full Name": "Amir Khan", "Email": "amir@example.com"},
		},
	}
}

func TestCSVRender(t *testing.T) {
	content, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, "Student ID,Full Name,Email", lines[0])
	require.Equal(t, "7,Zoe Diaz,zoe@example.com", lines[1])
}

func TestCSVRenderMissingColumnsAreEmpty(t *testing.T) {
	data := Dataset{
		Headers: []string{"A", "B"},
		Rows:    []map[string]string{{"A": "1"}},
	}
	content, err := NewCSVExporter().Render(data)
	require.NoError(t, err)
	require.Contains(t, string(content), "1,\n")
}

func TestCSVRenderRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	require.Error(t, err)
}

func TestPDFRender(t *testing.T) {
	content, err := NewPDFExporter().Render(sampleDataset(), "Course Roster")
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(content, []byte("%PDF")))
}

func TestPDFRenderRequiresHeaders(t *testing.T) {
	_, err := NewPDFExporter().Render(Dataset{}, "")
	require.Error(t, err)
}
