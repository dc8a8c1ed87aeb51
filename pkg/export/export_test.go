package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rosterTable() Table {
	return Table{
		Title:   "Course 10 Roster",
		Columns: []string{"Student ID", "Status", "Grade"},
		Rows: [][]string{
			{"5", "completed", "A"},
			{"6", "active", ""},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	raw, err := NewCSVExporter().Render(rosterTable())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Student ID,Status,Grade", lines[0])
	assert.Equal(t, "5,completed,A", lines[1])
	assert.Equal(t, "6,active,", lines[2])
}

func TestCSVExporterRequiresColumns(t *testing.T) {
	_, err := NewCSVExporter().Render(Table{})
	assert.Error(t, err)
}

func TestCSVExporterRejectsRaggedRows(t *testing.T) {
	_, err := NewCSVExporter().Render(Table{
		Columns: []string{"a", "b"},
		Rows:    [][]string{{"1"}},
	})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	raw, err := NewPDFExporter().Render(rosterTable())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "%PDF"))
}
