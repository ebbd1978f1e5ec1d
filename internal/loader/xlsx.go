package loader

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/gridfin/minigrid-cli/internal/model"
)

// ReadSitesXLSX reads a site batch from the first sheet of an XLSX workbook.
// Row 1 is the header; columns match the CSV layout.
func ReadSitesXLSX(path string) ([]model.SiteRecord, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "loader: open %s", path)
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("loader: %s has no sheets", path)
	}
	sheet := f.Sheets[0]
	if len(sheet.Rows) == 0 {
		return nil, eris.Errorf("loader: %s: sheet %q is empty", path, sheet.Name)
	}

	idx, err := columnIndex(rowToStrings(sheet.Rows[0]))
	if err != nil {
		return nil, err
	}

	var sites []model.SiteRecord
	for i, row := range sheet.Rows[1:] {
		cells := rowToStrings(row)
		if len(cells) == 0 {
			continue
		}
		site, err := siteFromRow(cells, idx, i+2)
		if err != nil {
			return nil, err
		}
		sites = append(sites, site)
	}

	return sites, nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for i, c := range row.Cells {
		cells[i] = c.String()
	}
	return cells
}
