// Package sizing derives PV and battery capacity from a site's load profile.
package sizing

import (
	"github.com/gridfin/minigrid-cli/internal/config"
	"github.com/gridfin/minigrid-cli/internal/model"
)

// SizeSystem sizes generation and storage for a load profile.
//
// PV capacity covers the aggregate daily energy need at the assumed peak sun
// hours, scaled up by the reserve margin. Battery capacity covers the
// configured autonomy period. The segment mix (household vs productive use)
// drives the aggregate, so shifting the mix is the lever that avoids
// oversizing; there is no blended per-customer average baked in.
func SizeSystem(profile model.LoadProfile, cfg config.SizingConfig) (model.SystemSizing, error) {
	if len(profile.Segments) == 0 {
		return model.SystemSizing{}, model.NewValidationError("segments", 0, "load profile has no segments")
	}
	for _, s := range profile.Segments {
		if s.Count < 0 {
			return model.SystemSizing{}, model.NewValidationError("segment "+s.Name+": count", s.Count, "count must be >= 0")
		}
		if s.DailyKWh < 0 {
			return model.SystemSizing{}, model.NewValidationError("segment "+s.Name+": daily_kwh", s.DailyKWh, "daily kWh must be >= 0")
		}
	}
	if cfg.PeakSunHours <= 0 {
		return model.SystemSizing{}, model.NewConfigError("sizing.peak_sun_hours", cfg.PeakSunHours, "peak sun hours must be > 0")
	}
	if cfg.ReserveMargin < 0 {
		return model.SystemSizing{}, model.NewConfigError("sizing.reserve_margin", cfg.ReserveMargin, "reserve margin must be >= 0")
	}
	if cfg.AutonomyDays < 0 {
		return model.SystemSizing{}, model.NewConfigError("sizing.autonomy_days", cfg.AutonomyDays, "autonomy days must be >= 0")
	}

	daily := profile.DailyEnergyKWh()

	return model.SystemSizing{
		DailyEnergyKWh:     daily,
		PVCapacityKW:       daily / cfg.PeakSunHours * (1 + cfg.ReserveMargin),
		BatteryCapacityKWh: daily * cfg.AutonomyDays,
	}, nil
}

// DeriveProfile builds a default load profile for a site from its population:
// households are population over average household size times the penetration
// rate, and productive-use connections are a configured share of households.
func DeriveProfile(site model.SiteRecord, cfg config.DemandConfig) model.LoadProfile {
	households := 0
	if cfg.AvgHouseholdSize > 0 {
		households = int(site.Population / cfg.AvgHouseholdSize * cfg.CustomerPenetration)
	}
	productive := int(float64(households) * cfg.ProductiveShare)

	return model.LoadProfile{
		SiteID: site.ID,
		Segments: []model.CustomerSegment{
			{Name: model.SegmentHousehold, Count: households, DailyKWh: cfg.HouseholdDailyKWh},
			{Name: model.SegmentProductiveUse, Count: productive, DailyKWh: cfg.ProductiveDailyKWh},
		},
	}
}
