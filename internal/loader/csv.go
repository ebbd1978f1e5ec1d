package loader

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/gridfin/minigrid-cli/internal/model"
)

// ReadSitesCSV reads a site batch from a CSV file with a header row.
func ReadSitesCSV(path string) ([]model.SiteRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "loader: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	return readSitesCSV(f)
}

func readSitesCSV(r io.Reader) ([]model.SiteRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // allow variable fields

	header, err := reader.Read()
	if err != nil {
		return nil, eris.Wrap(err, "loader: read CSV header")
	}
	idx, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var sites []model.SiteRecord
	rowNum := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "loader: read CSV row %d", rowNum)
		}
		rowNum++

		site, err := siteFromRow(row, idx, rowNum)
		if err != nil {
			return nil, err
		}
		sites = append(sites, site)
	}

	return sites, nil
}

// Segments reads a load-profile table. Rows with an empty site_id define the
// default segment set; rows with a site_id override that site's profile.
//
// Columns: site_id (optional per row), segment, count, daily_kwh.
type Segments struct {
	Default   []model.CustomerSegment
	Overrides map[string][]model.CustomerSegment
}

// ProfileFor returns the load profile for a site, preferring overrides.
// The second return is false when neither an override nor a default exists.
func (s Segments) ProfileFor(siteID string) (model.LoadProfile, bool) {
	if segs, ok := s.Overrides[siteID]; ok {
		return model.LoadProfile{SiteID: siteID, Segments: segs}, true
	}
	if len(s.Default) > 0 {
		return model.LoadProfile{SiteID: siteID, Segments: s.Default}, true
	}
	return model.LoadProfile{}, false
}

// ReadSegmentsCSV reads load-profile assumptions from a CSV file.
func ReadSegmentsCSV(path string) (Segments, error) {
	f, err := os.Open(path)
	if err != nil {
		return Segments{}, eris.Wrapf(err, "loader: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	return readSegmentsCSV(f)
}

func readSegmentsCSV(r io.Reader) (Segments, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return Segments{}, eris.Wrap(err, "loader: read segments header")
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"segment", "count", "daily_kwh"} {
		if _, ok := idx[required]; !ok {
			return Segments{}, eris.Errorf("loader: missing required segments column %q", required)
		}
	}

	out := Segments{Overrides: make(map[string][]model.CustomerSegment)}
	rowNum := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Segments{}, eris.Wrapf(err, "loader: read segments row %d", rowNum)
		}
		rowNum++

		cell := func(col string) string {
			i, ok := idx[col]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		count, err := strconv.Atoi(cell("count"))
		if err != nil {
			return Segments{}, eris.Wrapf(err, "loader: row %d: count", rowNum)
		}
		daily, err := parseFloat(cell("daily_kwh"))
		if err != nil {
			return Segments{}, eris.Wrapf(err, "loader: row %d: daily_kwh", rowNum)
		}

		seg := model.CustomerSegment{
			Name:     strings.ToLower(cell("segment")),
			Count:    count,
			DailyKWh: daily,
		}

		if siteID := cell("site_id"); siteID != "" {
			out.Overrides[siteID] = append(out.Overrides[siteID], seg)
		} else {
			out.Default = append(out.Default, seg)
		}
	}

	return out, nil
}
