package loader

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/gridfin/minigrid-cli/internal/model"
)

// ReadSitesGeoJSON reads a site batch from a GeoJSON FeatureCollection.
// Feature properties carry the tabular columns; a point geometry, when
// present, supplies lon/lat on the record.
func ReadSitesGeoJSON(path string) ([]model.SiteRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "loader: read %s", path)
	}

	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, eris.Wrapf(err, "loader: parse GeoJSON %s", path)
	}

	sites := make([]model.SiteRecord, 0, len(fc.Features))
	for i, feat := range fc.Features {
		site, err := siteFromFeature(feat, i)
		if err != nil {
			return nil, err
		}
		sites = append(sites, site)
	}

	return sites, nil
}

func siteFromFeature(feat *geojson.Feature, i int) (model.SiteRecord, error) {
	prop := func(keys ...string) string {
		for _, k := range keys {
			if v, ok := feat.Properties[k]; ok {
				return fmt.Sprintf("%v", v)
			}
		}
		return ""
	}
	num := func(keys ...string) (float64, error) {
		for _, k := range keys {
			v, ok := feat.Properties[k]
			if !ok {
				continue
			}
			switch n := v.(type) {
			case float64:
				return n, nil
			case int:
				return float64(n), nil
			case json.Number:
				return n.Float64()
			default:
				return 0, eris.Errorf("loader: feature %d: property %q is not numeric", i, k)
			}
		}
		return 0, nil
	}

	site := model.SiteRecord{
		ID:   prop(colID),
		Name: CanonicalName(prop(colName)),
	}
	if site.ID == "" && feat.ID != "" {
		site.ID = feat.ID
	}

	var err error
	if site.Population, err = num(colPopulation, "pop"); err != nil {
		return site, err
	}
	if site.EconomicActivityIndex, err = num(colEconomicActivity); err != nil {
		return site, err
	}
	if site.GridDistanceKM, err = num(colGridDistance, "distance_to_grid_km"); err != nil {
		return site, err
	}
	if site.MarketSizeIndicator, err = num(colMarketSize); err != nil {
		return site, err
	}

	if pt, ok := feat.Geometry.(*geom.Point); ok {
		coords := pt.Coords()
		if len(coords) >= 2 {
			lon, lat := coords[0], coords[1]
			site.Lon, site.Lat = &lon, &lat
		}
	}

	return site, nil
}
