package calculator

import (
	"testing"

	"carbonledger/internal/models"

	"github.com/shopspring/decimal"
)

func TestSolarDefaults(t *testing.T) {
	calc := New(nil)
	coins, method, err := calc.CoinAmount(models.ProjectApplication{
		ProjectType: models.SourceSolarPanel,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 20 panels x 400 W x 5 h x 365 d x 0.85 = 12410 kWh; at 0.5 kg/kWh
	// that is 6.205 tonnes.
	if !coins.Equal(decimal.RequireFromString("6.21")) {
		t.Fatalf("expected 6.21 coins, got %s", coins)
	}
	if method != "solar standard estimate" {
		t.Fatalf("unexpected method: %q", method)
	}
}

func TestSolarWithRecordedPanels(t *testing.T) {
	calc := New(nil)
	panelCount := 10
	panelWattage := 300
	coins, _, err := calc.CoinAmount(models.ProjectApplication{
		ProjectType:  models.SourceSolarPanel,
		PanelCount:   &panelCount,
		PanelWattage: &panelWattage,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !coins.Equal(decimal.RequireFromString("2.33")) {
		t.Fatalf("expected 2.33 coins, got %s", coins)
	}
}

func TestForestationUsesSequestrationRate(t *testing.T) {
	calc := New(func(latitude, longitude float64) decimal.Decimal {
		if latitude != 12.5 || longitude != -3.25 {
			t.Fatalf("unexpected coordinates: %f %f", latitude, longitude)
		}
		return decimal.NewFromFloat(7.5)
	})
	area := decimal.RequireFromString("12.5")
	lat, lon := 12.5, -3.25
	coins, method, err := calc.CoinAmount(models.ProjectApplication{
		ProjectType:  models.SourceForestation,
		AreaHectares: &area,
		Latitude:     &lat,
		Longitude:    &lon,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !coins.Equal(decimal.RequireFromString("93.75")) {
		t.Fatalf("expected 93.75 coins, got %s", coins)
	}
	if method != "forest sequestration estimate" {
		t.Fatalf("unexpected method: %q", method)
	}
}

func TestForestationRequiresArea(t *testing.T) {
	calc := New(nil)
	if _, _, err := calc.CoinAmount(models.ProjectApplication{
		ProjectType: models.SourceForestation,
	}); err == nil {
		t.Fatal("expected an error for missing area")
	}
}

func TestUnsupportedProjectType(t *testing.T) {
	calc := New(nil)
	if _, _, err := calc.CoinAmount(models.ProjectApplication{
		ProjectType: models.SourceType("wind"),
	}); err != ErrUnsupportedProject {
		t.Fatalf("expected ErrUnsupportedProject, got %v", err)
	}
}
