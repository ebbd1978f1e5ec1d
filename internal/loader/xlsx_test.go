package loader

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

// writeSitesWorkbook writes a minimal site workbook for loader tests.
func writeSitesWorkbook(t *testing.T, rows [][]string) string {
	t.Helper()

	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Sites")
	require.NoError(t, err)
	for _, cells := range rows {
		row := sheet.AddRow()
		for _, c := range cells {
			row.AddCell().SetString(c)
		}
	}

	path := filepath.Join(t.TempDir(), "sites.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestReadSitesXLSX(t *testing.T) {
	t.Parallel()

	path := writeSitesWorkbook(t, [][]string{
		{"id", "name", "population", "economic_activity_index", "grid_distance_km", "market_size_indicator"},
		{"S-001", "Kandiga", "3200", "0.8", "45", "120"},
		{"S-002", "Bolga East", "900", "0.3", "12", "40"},
	})

	sites, err := ReadSitesXLSX(path)
	require.NoError(t, err)
	require.Len(t, sites, 2)

	assert.Equal(t, "S-001", sites[0].ID)
	assert.Equal(t, "Kandiga", sites[0].Name)
	assert.InDelta(t, 3200, sites[0].Population, 1e-9)
	assert.InDelta(t, 0.3, sites[1].EconomicActivityIndex, 1e-9)
}

func TestReadSitesXLSX_MissingColumn(t *testing.T) {
	t.Parallel()

	path := writeSitesWorkbook(t, [][]string{
		{"id", "name", "population"},
		{"S-001", "Kandiga", "3200"},
	})

	_, err := ReadSitesXLSX(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required column")
}

func TestReadSitesXLSX_BadNumber(t *testing.T) {
	t.Parallel()

	path := writeSitesWorkbook(t, [][]string{
		{"id", "name", "population", "economic_activity_index", "grid_distance_km", "market_size_indicator"},
		{"S-001", "Kandiga", "lots", "0.8", "45", "120"},
	})

	_, err := ReadSitesXLSX(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "population")
}

func TestReadSitesXLSX_NotAWorkbook(t *testing.T) {
	t.Parallel()

	_, err := ReadSitesXLSX(filepath.Join(t.TempDir(), "missing.xlsx"))
	require.Error(t, err)
}

func TestLoadSites_DispatchesXLSX(t *testing.T) {
	t.Parallel()

	path := writeSitesWorkbook(t, [][]string{
		{"id", "name", "population", "economic_activity_index", "grid_distance_km", "market_size_indicator"},
		{"S-001", "Kandiga", "3200", "0.8", "45", "120"},
	})

	sites, err := LoadSites(path)
	require.NoError(t, err)
	assert.Len(t, sites, 1)
}
