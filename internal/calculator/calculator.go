// Package calculator estimates the coin amount a project application is
// worth. The formulas are deliberately simple: coins are pegged 1:1 to
// tonnes of CO2, and per-project rates come from a pluggable lookup so a
// real data source can replace the defaults.
package calculator

import (
	"errors"

	"carbonledger/internal/models"

	"github.com/shopspring/decimal"
)

var ErrUnsupportedProject = errors.New("unsupported project type")

// Defaults for solar installations without recorded panel details:
// 20 panels x 400 W, 5 peak sun hours, 365 days, 85% system efficiency,
// 0.5 kg CO2 avoided per kWh.
const (
	defaultPanelCount   = 20
	defaultPanelWattage = 400
	peakSunHours        = 5
	daysPerYear         = 365
	systemEfficiency    = 0.85
	co2KgPerKWh         = 0.5
)

// SequestrationRate returns the annual CO2 uptake in tonnes per hectare
// for a forest at the given coordinates.
type SequestrationRate func(latitude, longitude float64) decimal.Decimal

// DefaultSequestrationRate assumes temperate mixed forest regardless of
// location.
func DefaultSequestrationRate(latitude, longitude float64) decimal.Decimal {
	return decimal.NewFromFloat(7.5)
}

type Calculator struct {
	sequestration SequestrationRate
}

func New(rate SequestrationRate) *Calculator {
	if rate == nil {
		rate = DefaultSequestrationRate
	}
	return &Calculator{sequestration: rate}
}

// CoinAmount returns the annual coin estimate for an application and a
// label describing the method used.
func (c *Calculator) CoinAmount(app models.ProjectApplication) (decimal.Decimal, string, error) {
	switch app.ProjectType {
	case models.SourceSolarPanel:
		return c.solarCoins(app), "solar standard estimate", nil
	case models.SourceForestation:
		coins, err := c.forestationCoins(app)
		if err != nil {
			return decimal.Zero, "", err
		}
		return coins, "forest sequestration estimate", nil
	default:
		return decimal.Zero, "", ErrUnsupportedProject
	}
}

func (c *Calculator) solarCoins(app models.ProjectApplication) decimal.Decimal {
	panelCount := defaultPanelCount
	if app.PanelCount != nil && *app.PanelCount > 0 {
		panelCount = *app.PanelCount
	}
	panelWattage := defaultPanelWattage
	if app.PanelWattage != nil && *app.PanelWattage > 0 {
		panelWattage = *app.PanelWattage
	}
	watts := decimal.NewFromInt(int64(panelCount * panelWattage * peakSunHours * daysPerYear))
	annualKWh := watts.Mul(decimal.NewFromFloat(systemEfficiency)).Div(decimal.NewFromInt(1000))
	co2Tonnes := annualKWh.Mul(decimal.NewFromFloat(co2KgPerKWh)).Div(decimal.NewFromInt(1000))
	return co2Tonnes.Round(2)
}

func (c *Calculator) forestationCoins(app models.ProjectApplication) (decimal.Decimal, error) {
	if app.AreaHectares == nil || !app.AreaHectares.IsPositive() {
		return decimal.Zero, errors.New("forestation application has no area")
	}
	lat, lon := 0.0, 0.0
	if app.Latitude != nil {
		lat = *app.Latitude
	}
	if app.Longitude != nil {
		lon = *app.Longitude
	}
	rate := c.sequestration(lat, lon)
	return app.AreaHectares.Mul(rate).Round(2), nil
}
