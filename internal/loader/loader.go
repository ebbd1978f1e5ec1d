// Package loader reads site batches and load-profile tables from CSV, XLSX,
// GeoJSON, and shapefile inputs.
package loader

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/unicode/norm"

	"github.com/gridfin/minigrid-cli/internal/model"
)

// Site input columns. "name" is optional; the rest are required.
const (
	colID               = "id"
	colName             = "name"
	colPopulation       = "population"
	colEconomicActivity = "economic_activity_index"
	colGridDistance     = "grid_distance_km"
	colMarketSize       = "market_size_indicator"
)

// LoadSites reads a site batch, dispatching on the file extension:
// .csv, .xlsx, .geojson/.json, or .shp.
func LoadSites(path string) ([]model.SiteRecord, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadSitesCSV(path)
	case ".xlsx":
		return ReadSitesXLSX(path)
	case ".geojson", ".json":
		return ReadSitesGeoJSON(path)
	case ".shp":
		return ReadSitesSHP(path)
	default:
		return nil, eris.Errorf("loader: unsupported site input format %q", filepath.Ext(path))
	}
}

// columnIndex maps required header names to their positions.
// Matching is case-insensitive and ignores surrounding whitespace.
func columnIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{colID, colPopulation, colEconomicActivity, colGridDistance, colMarketSize} {
		if _, ok := idx[required]; !ok {
			return nil, eris.Errorf("loader: missing required column %q", required)
		}
	}
	return idx, nil
}

// siteFromRow builds a SiteRecord from one tabular row.
func siteFromRow(row []string, idx map[string]int, rowNum int) (model.SiteRecord, error) {
	cell := func(col string) string {
		i, ok := idx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	site := model.SiteRecord{
		ID:   cell(colID),
		Name: CanonicalName(cell(colName)),
	}

	var err error
	if site.Population, err = parseFloat(cell(colPopulation)); err != nil {
		return site, eris.Wrapf(err, "loader: row %d: population", rowNum)
	}
	if site.EconomicActivityIndex, err = parseFloat(cell(colEconomicActivity)); err != nil {
		return site, eris.Wrapf(err, "loader: row %d: economic_activity_index", rowNum)
	}
	if site.GridDistanceKM, err = parseFloat(cell(colGridDistance)); err != nil {
		return site, eris.Wrapf(err, "loader: row %d: grid_distance_km", rowNum)
	}
	if site.MarketSizeIndicator, err = parseFloat(cell(colMarketSize)); err != nil {
		return site, eris.Wrapf(err, "loader: row %d: market_size_indicator", rowNum)
	}

	return site, nil
}

func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

// CanonicalName normalizes a settlement name to NFC and trims whitespace, so
// names from different source encodings compare and sort consistently.
func CanonicalName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}
