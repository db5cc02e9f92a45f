// Package certificate renders CO2 offset certificates for completed
// retirements.
package certificate

import (
	"bytes"
	"fmt"

	"carbonledger/internal/models"

	"github.com/jung-kurt/gofpdf"
)

type Renderer struct {
	platformName string
}

func NewRenderer(platformName string) *Renderer {
	return &Renderer{platformName: platformName}
}

// Render produces a single-page landscape A4 certificate PDF.
func (r *Renderer) Render(retirement models.CreditRetirement) ([]byte, error) {
	if retirement.CertificateNumber == nil {
		return nil, fmt.Errorf("retirement %s has no certificate number", retirement.ID)
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(25, 25, 25)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 26)
	pdf.SetTextColor(34, 102, 68)
	pdf.CellFormat(0, 16, "Certificate of Carbon Offset", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 12)
	pdf.SetTextColor(60, 60, 60)
	pdf.CellFormat(0, 8, r.platformName, "", 1, "C", false, 0, "")
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 13)
	pdf.CellFormat(0, 8, "This certifies the permanent retirement of", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "B", 22)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 14, fmt.Sprintf("%s carbon coins", retirement.CoinsRetired.String()), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 13)
	pdf.SetTextColor(60, 60, 60)
	pdf.CellFormat(0, 8, fmt.Sprintf("offsetting %s tonnes of CO2", retirement.CO2OffsetTons.String()), "", 1, "C", false, 0, "")
	pdf.Ln(8)

	pdf.CellFormat(0, 8, fmt.Sprintf("Retirement reason: %s", retirement.Reason), "", 1, "C", false, 0, "")
	if retirement.CompletedAt != nil {
		pdf.CellFormat(0, 8, fmt.Sprintf("Completed on %s", retirement.CompletedAt.Format("2 January 2006")), "", 1, "C", false, 0, "")
	}
	pdf.Ln(12)

	pdf.SetFont("Courier", "", 12)
	pdf.SetTextColor(34, 102, 68)
	pdf.CellFormat(0, 8, fmt.Sprintf("Certificate No. %s", *retirement.CertificateNumber), "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
