// Package report writes the Viable Pipeline output table.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/gridfin/minigrid-cli/internal/model"
)

// Header is the Viable Pipeline column layout, shared by CSV and XLSX output.
var Header = []string{
	"site_id", "name", "viability_score", "rank", "tier",
	"pv_kw", "battery_kwh", "capex",
	"npv", "irr", "payback_years", "avg_dscr",
	"irr_pass", "dscr_pass",
}

// WriteCSV writes pipeline rows as CSV.
func WriteCSV(w io.Writer, rows []model.PipelineRow) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(Header); err != nil {
		return eris.Wrap(err, "report: write CSV header")
	}
	for _, r := range rows {
		if err := cw.Write(csvRow(r)); err != nil {
			return eris.Wrapf(err, "report: write CSV row for site %s", r.SiteID)
		}
	}
	return nil
}

func csvRow(r model.PipelineRow) []string {
	return []string{
		r.SiteID,
		r.Name,
		fmt.Sprintf("%.1f", r.ViabilityScore),
		strconv.Itoa(r.Rank),
		string(r.Tier),
		fmt.Sprintf("%.1f", r.PVCapacityKW),
		fmt.Sprintf("%.1f", r.BatteryKWh),
		fmt.Sprintf("%.0f", r.CAPEX),
		fmt.Sprintf("%.0f", r.NPV),
		fmt.Sprintf("%.4f", r.IRR),
		FormatPayback(r),
		FormatDSCR(r.AvgDSCR),
		strconv.FormatBool(r.IRRPass),
		strconv.FormatBool(r.DSCRPass),
	}
}

// WriteXLSX writes pipeline rows as a single-sheet XLSX workbook.
func WriteXLSX(path string, rows []model.PipelineRow) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Viable Pipeline")
	if err != nil {
		return eris.Wrap(err, "report: add sheet")
	}

	hr := sheet.AddRow()
	for _, h := range Header {
		hr.AddCell().SetString(h)
	}

	for _, r := range rows {
		row := sheet.AddRow()
		row.AddCell().SetString(r.SiteID)
		row.AddCell().SetString(r.Name)
		row.AddCell().SetFloatWithFormat(r.ViabilityScore, "0.0")
		row.AddCell().SetInt(r.Rank)
		row.AddCell().SetString(string(r.Tier))
		row.AddCell().SetFloatWithFormat(r.PVCapacityKW, "0.0")
		row.AddCell().SetFloatWithFormat(r.BatteryKWh, "0.0")
		row.AddCell().SetFloatWithFormat(r.CAPEX, "0")
		row.AddCell().SetFloatWithFormat(r.NPV, "0")
		row.AddCell().SetFloatWithFormat(r.IRR, "0.0000")
		row.AddCell().SetString(FormatPayback(r))
		row.AddCell().SetString(FormatDSCR(r.AvgDSCR))
		row.AddCell().SetBool(r.IRRPass)
		row.AddCell().SetBool(r.DSCRPass)
	}

	return eris.Wrapf(f.Save(path), "report: save %s", path)
}

// FormatDSCR renders an average DSCR, or "n/a" when undefined (no debt
// service in any year).
func FormatDSCR(dscr *float64) string {
	if dscr == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *dscr)
}

// FormatPayback renders the payback year, or "not achieved" when cumulative
// cash flow never turns positive within the horizon.
func FormatPayback(r model.PipelineRow) string {
	if !r.PaybackAchieved {
		return "not achieved"
	}
	return strconv.Itoa(r.PaybackYear)
}
