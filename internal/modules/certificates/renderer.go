// Package certificates renders ABFI rating certificates as PDF documents.
package certificates

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abfi/platform/internal/modules/rating"
	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CertificateData is everything printed on a certificate. Scores are taken
// from Result as-is.
type CertificateData struct {
	Number          string
	FeedstockName   string
	SupplierName    string
	Category        rating.Category
	Result          rating.AbfiScoreResult
	StandardsDigest string
	IssuedAt        time.Time
}

// NewCertificateNumber returns a certificate number of the form
// ABFI-YYYYMMDD-XXXXXXXX.
func NewCertificateNumber(issuedAt time.Time) string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return fmt.Sprintf("ABFI-%s-%s", issuedAt.UTC().Format("20060102"), id[:8])
}

// Renderer draws certificates.
type Renderer struct {
	log zerolog.Logger
}

// NewRenderer creates a certificate renderer.
func NewRenderer(log zerolog.Logger) *Renderer {
	return &Renderer{
		log: log.With().Str("component", "certificates").Logger(),
	}
}

const font = "Helvetica"

// Render produces a single-page A4 PDF.
func (r *Renderer) Render(d CertificateData) ([]byte, error) {
	if d.Number == "" {
		return nil, errors.New("certificate number is required")
	}
	if d.IssuedAt.IsZero() {
		return nil, errors.New("certificate issue date is required")
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("ABFI Rating Certificate "+d.Number, false)
	pdf.SetAuthor("ABFI", false)
	pdf.SetCreationDate(d.IssuedAt)
	pdf.SetModificationDate(d.IssuedAt)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(false, 20)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	res := d.Result
	tier := rating.GetScoreTier(res.AbfiScore)

	// Header
	pdf.SetFillColor(22, 101, 52)
	pdf.Rect(0, 0, 210, 38, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont(font, "B", 22)
	pdf.SetXY(20, 12)
	pdf.CellFormat(170, 10, "ABFI Rating Certificate", "", 1, "L", false, 0, "")
	pdf.SetFont(font, "", 10)
	pdf.SetX(20)
	pdf.CellFormat(170, 6, "Certificate No. "+d.Number, "", 1, "L", false, 0, "")

	pdf.SetTextColor(33, 37, 41)
	pdf.SetXY(20, 50)

	// Subject
	r.row(pdf, "Feedstock", tr(d.FeedstockName))
	r.row(pdf, "Supplier", tr(d.SupplierName))
	r.row(pdf, "Category", string(d.Category))
	r.row(pdf, "Issued", d.IssuedAt.UTC().Format("2 January 2006"))
	pdf.Ln(8)

	// Composite score
	pdf.SetFont(font, "B", 48)
	pdf.CellFormat(60, 22, fmt.Sprintf("%d", res.AbfiScore), "1", 0, "C", false, 0, "")
	pdf.SetFont(font, "B", 16)
	pdf.CellFormat(110, 11, "  "+string(tier), "", 2, "L", false, 0, "")
	pdf.SetFont(font, "", 10)
	pdf.CellFormat(110, 11, "  Composite ABFI score out of 100", "", 1, "L", false, 0, "")
	pdf.Ln(10)

	// Sub-scores
	w := res.Breakdown.Weights
	pdf.SetFont(font, "B", 11)
	pdf.SetFillColor(233, 236, 239)
	pdf.CellFormat(90, 8, "Category", "1", 0, "L", true, 0, "")
	pdf.CellFormat(40, 8, "Weight", "1", 0, "C", true, 0, "")
	pdf.CellFormat(40, 8, "Score", "1", 1, "C", true, 0, "")
	pdf.SetFont(font, "", 11)
	r.scoreRow(pdf, "Sustainability", w.Sustainability, fmt.Sprintf("%d", res.SustainabilityScore))
	r.scoreRow(pdf, "Carbon intensity", w.CarbonIntensity, fmt.Sprintf("%.1f", res.CarbonIntensityScore))
	r.scoreRow(pdf, "Quality", w.Quality, fmt.Sprintf("%d", res.QualityScore))
	r.scoreRow(pdf, "Supply reliability", w.Reliability, fmt.Sprintf("%d", res.ReliabilityScore))
	pdf.Ln(8)

	// Carbon
	r.row(pdf, "Carbon intensity", fmt.Sprintf("%.2f gCO2e/MJ", res.CarbonIntensityValue))
	r.row(pdf, "Carbon rating", string(res.CarbonRating))
	if d.StandardsDigest != "" {
		r.row(pdf, "Standards", d.StandardsDigest)
	}

	// Footer
	pdf.SetXY(20, 270)
	pdf.SetFont(font, "I", 8)
	pdf.SetTextColor(108, 117, 125)
	pdf.MultiCell(170, 4, "This certificate reflects the evidence on record at the issue date. "+
		"Scores are recalculated when new evidence or supplier history is recorded.", "", "L", false)

	if err := pdf.Error(); err != nil {
		r.log.Error().Err(err).Str("number", d.Number).Msg("Failed to draw certificate")
		return nil, fmt.Errorf("failed to draw certificate: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		r.log.Error().Err(err).Str("number", d.Number).Msg("Failed to generate certificate output")
		return nil, fmt.Errorf("failed to generate certificate output: %w", err)
	}

	r.log.Debug().
		Str("number", d.Number).
		Int("pdf_size", buf.Len()).
		Msg("Certificate rendered")
	return buf.Bytes(), nil
}

func (r *Renderer) row(pdf *fpdf.Fpdf, label, value string) {
	pdf.SetFont(font, "B", 11)
	pdf.CellFormat(45, 7, label, "", 0, "L", false, 0, "")
	pdf.SetFont(font, "", 11)
	pdf.CellFormat(125, 7, value, "", 1, "L", false, 0, "")
}

func (r *Renderer) scoreRow(pdf *fpdf.Fpdf, label string, weight float64, score string) {
	pdf.CellFormat(90, 8, label, "1", 0, "L", false, 0, "")
	pdf.CellFormat(40, 8, fmt.Sprintf("%.0f%%", weight*100), "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 8, score, "1", 1, "C", false, 0, "")
}
