package certificate

import (
	"bytes"
	"testing"
	"time"

	"carbonledger/internal/models"

	"github.com/shopspring/decimal"
)

func TestRenderProducesPDF(t *testing.T) {
	cert := "ECO-RET-20260115-3F1E2D3C"
	completedAt := time.Date(2026, time.January, 15, 12, 0, 0, 0, time.UTC)
	renderer := NewRenderer("Carbon Credit Platform")
	body, err := renderer.Render(models.CreditRetirement{
		ID:                "ret-1",
		UserID:            "user-1",
		CoinsRetired:      decimal.RequireFromString("50"),
		CO2OffsetTons:     decimal.RequireFromString("50"),
		Status:            models.RetirementCompleted,
		Reason:            "Carbon Offset",
		CertificateNumber: &cert,
		CompletedAt:       &completedAt,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(body, []byte("%PDF")) {
		t.Fatalf("expected a PDF document, got %q", body[:16])
	}
}

func TestRenderRequiresCertificateNumber(t *testing.T) {
	renderer := NewRenderer("Carbon Credit Platform")
	if _, err := renderer.Render(models.CreditRetirement{ID: "ret-1"}); err == nil {
		t.Fatal("expected an error for missing certificate number")
	}
}
