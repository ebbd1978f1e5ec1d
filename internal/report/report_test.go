package report

import (
	"bytes"
	"encoding/csv"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/gridfin/minigrid-cli/internal/model"
)

func testRows() []model.PipelineRow {
	dscr := 1.45
	return []model.PipelineRow{
		{
			SiteID: "S-001", Name: "Kandiga", ViabilityScore: 82.3, Rank: 1, Tier: model.TierHigh,
			PVCapacityKW: 21.6, BatteryKWh: 90, CAPEX: 87450,
			NPV: 12500.5, IRR: 0.1824, PaybackYear: 6, PaybackAchieved: true,
			AvgDSCR: &dscr, IRRPass: true, DSCRPass: true,
		},
		{
			SiteID: "S-002", Name: "Bolga East", ViabilityScore: 44.0, Rank: 2, Tier: model.TierMedium,
			PVCapacityKW: 9.8, BatteryKWh: 41, CAPEX: 39500,
			NPV: -4200, IRR: 0.06, PaybackAchieved: false,
			AvgDSCR: nil, IRRPass: false, DSCRPass: true,
		},
	}
}

func TestWriteCSV(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, testRows()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, Header, records[0])

	first := records[1]
	assert.Equal(t, "S-001", first[0])
	assert.Equal(t, "82.3", first[2])
	assert.Equal(t, "High", first[4])
	assert.Equal(t, "0.1824", first[9])
	assert.Equal(t, "6", first[10])
	assert.Equal(t, "1.45", first[11])
	assert.Equal(t, "true", first[12])

	second := records[2]
	assert.Equal(t, "not achieved", second[10])
	assert.Equal(t, "n/a", second[11])
	assert.Equal(t, "false", second[12])
}

func TestWriteCSV_EmptyBatchStillWritesHeader(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, Header, records[0])
}

func TestWriteXLSX(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "pipeline.xlsx")
	require.NoError(t, WriteXLSX(path, testRows()))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)

	sheet := f.Sheets[0]
	assert.Equal(t, "Viable Pipeline", sheet.Name)
	require.Len(t, sheet.Rows, 3)

	assert.Equal(t, "site_id", sheet.Rows[0].Cells[0].String())
	assert.Equal(t, "S-001", sheet.Rows[1].Cells[0].String())

	score, err := sheet.Rows[1].Cells[2].Float()
	require.NoError(t, err)
	assert.InDelta(t, 82.3, score, 1e-9)

	assert.Equal(t, "n/a", sheet.Rows[2].Cells[11].String())
	assert.Equal(t, "not achieved", sheet.Rows[2].Cells[10].String())
}

func TestFormatDSCR(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "n/a", FormatDSCR(nil))
	dscr := 1.456
	assert.Equal(t, "1.46", FormatDSCR(&dscr))
}

func TestFormatPayback(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "6", FormatPayback(model.PipelineRow{PaybackYear: 6, PaybackAchieved: true}))
	assert.Equal(t, "not achieved", FormatPayback(model.PipelineRow{PaybackAchieved: false}))
}
