package certificates

import (
	"bytes"
	"regexp"
	"testing"
	"time"

	"github.com/abfi/platform/internal/modules/rating"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleData(t *testing.T) CertificateData {
	t.Helper()
	res, err := rating.CalculateAbfiScore(
		rating.SustainabilityInputs{Certification: rating.CertificationISCCEU, NoDeforestation: true},
		25,
		rating.QualityInputs{Category: rating.CategoryUCO, Parameters: map[string]float64{"free_fatty_acid": 5}},
		rating.ReliabilityInputs{OnTimeInFullPct: 90, MonthsActive: 12, TransactionCount: 6},
	)
	require.NoError(t, err)

	issued := time.Date(2026, time.May, 4, 9, 0, 0, 0, time.UTC)
	return CertificateData{
		Number:          NewCertificateNumber(issued),
		FeedstockName:   "Used cooking oil, Brisbane depot",
		SupplierName:    "Rendering Pty Ltd",
		Category:        rating.CategoryUCO,
		Result:          res,
		StandardsDigest: rating.BuiltinStandardsDigest,
		IssuedAt:        issued,
	}
}

func TestRenderer_Render(t *testing.T) {
	r := NewRenderer(zerolog.Nop())

	out, err := r.Render(sampleData(t))
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.Contains(t, string(bytes.TrimSpace(out[len(out)-16:])), "%%EOF")
}

func TestRenderer_NonASCIINames(t *testing.T) {
	r := NewRenderer(zerolog.Nop())
	d := sampleData(t)
	d.SupplierName = "Énergie Médoc"

	out, err := r.Render(d)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestRenderer_RequiresNumberAndDate(t *testing.T) {
	r := NewRenderer(zerolog.Nop())

	d := sampleData(t)
	d.Number = ""
	_, err := r.Render(d)
	assert.Error(t, err)

	d = sampleData(t)
	d.IssuedAt = time.Time{}
	_, err = r.Render(d)
	assert.Error(t, err)
}

func TestNewCertificateNumber(t *testing.T) {
	at := time.Date(2026, time.January, 31, 23, 0, 0, 0, time.UTC)

	n := NewCertificateNumber(at)
	assert.Regexp(t, regexp.MustCompile(`^ABFI-20260131-[0-9A-F]{8}$`), n)
	assert.NotEqual(t, n, NewCertificateNumber(at))
}
