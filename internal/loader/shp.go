package loader

import (
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"

	"github.com/gridfin/minigrid-cli/internal/model"
)

// ReadSitesSHP reads a site batch from shapefile attributes. Point geometries
// supply lon/lat; attribute fields match the tabular column names.
func ReadSitesSHP(path string) ([]model.SiteRecord, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "loader: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	idx := map[string]int{}
	for i, f := range reader.Fields() {
		idx[strings.ToLower(strings.TrimSpace(f.String()))] = i
	}
	for _, required := range []string{colID, colPopulation, colEconomicActivity, colGridDistance, colMarketSize} {
		if _, ok := idx[required]; !ok {
			return nil, eris.Errorf("loader: shapefile missing required field %q", required)
		}
	}

	var sites []model.SiteRecord
	for reader.Next() {
		n, shape := reader.Shape()

		attr := func(col string) string {
			i, ok := idx[col]
			if !ok {
				return ""
			}
			return strings.TrimSpace(reader.Attribute(i))
		}

		site := model.SiteRecord{
			ID:   attr(colID),
			Name: CanonicalName(attr(colName)),
		}
		var err error
		if site.Population, err = parseFloat(attr(colPopulation)); err != nil {
			return nil, eris.Wrapf(err, "loader: shape %d: population", n)
		}
		if site.EconomicActivityIndex, err = parseFloat(attr(colEconomicActivity)); err != nil {
			return nil, eris.Wrapf(err, "loader: shape %d: economic_activity_index", n)
		}
		if site.GridDistanceKM, err = parseFloat(attr(colGridDistance)); err != nil {
			return nil, eris.Wrapf(err, "loader: shape %d: grid_distance_km", n)
		}
		if site.MarketSizeIndicator, err = parseFloat(attr(colMarketSize)); err != nil {
			return nil, eris.Wrapf(err, "loader: shape %d: market_size_indicator", n)
		}

		if pt, ok := shape.(*shp.Point); ok {
			lon, lat := pt.X, pt.Y
			site.Lon, site.Lat = &lon, &lat
		}

		sites = append(sites, site)
	}

	return sites, nil
}
