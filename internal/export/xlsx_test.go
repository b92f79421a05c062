package export

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/hypernest/internal/model"
)

func TestExportXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cutlist.xlsx")
	result := buildTestResult(t)
	result.UnplacedParts = []model.InstanceRef{{PartID: "u1", Label: "Too Big", Instance: 0}}

	require.NoError(t, ExportXLSX(path, result))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{summarySheet, placementsSheet}, f.GetSheetList())

	summary, err := f.GetRows(summarySheet)
	require.NoError(t, err)
	assert.Equal(t, "Sheet", summary[0][0])
	// header plus one row per slot
	assert.Equal(t, "MDF 1200x600", summary[3][1])
	assert.Equal(t, "0", summary[2][5])

	placements, err := f.GetRows(placementsSheet)
	require.NoError(t, err)
	require.Len(t, placements, 6)
	assert.Equal(t, []string{"p1", "Side Frame", "1", "1", "Plywood 2440x1220"}, placements[1][:5])
	assert.Equal(t, "unplaced", placements[5][3])
}

func TestExportXLSX_Empty(t *testing.T) {
	err := ExportXLSX(filepath.Join(t.TempDir(), "x.xlsx"), model.NestingResult{})
	assert.True(t, errors.Is(err, ErrNothingToExport))
}
