package script_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"docpipe/internal/domain"
	"docpipe/internal/script"
)

func TestDetector_Distribution_PureLatin(t *testing.T) {
	d := script.NewDetector(0.15)

	dist := d.Distribution("INVOICE 2024")

	assert.Equal(t, 1.0, dist.Latin)
	assert.Equal(t, 0.0, dist.Arabic)
	assert.Equal(t, domain.ScriptLatin, dist.Dominant())
}

func TestDetector_Distribution_PureArabic(t *testing.T) {
	d := script.NewDetector(0.15)

	dist := d.Distribution("مرحبا بك")

	assert.Equal(t, 1.0, dist.Arabic)
	assert.Equal(t, 0.0, dist.Latin)
	assert.Equal(t, domain.ScriptArabic, dist.Dominant())
}

func TestDetector_Distribution_IgnoresPunctuationAndSpace(t *testing.T) {
	d := script.NewDetector(0.15)

	dist := d.Distribution("a, b. c!   ")

	assert.Equal(t, 3, dist.Total)
	assert.Equal(t, 1.0, dist.Latin)
}

func TestDetector_Distribution_DigitsCountAsLatin(t *testing.T) {
	d := script.NewDetector(0.15)

	dist := d.Distribution("123456")

	assert.Equal(t, 1.0, dist.Latin)
}

func TestDetector_Classify_ModerateArabicMinorityEscalates(t *testing.T) {
	d := script.NewDetector(0.15)

	// 4 Arabic letters out of 15 total -> ~27%, above the 15% threshold even
	// though Latin is the proportional majority.
	_, cls := d.ClassifyText("Invoice No12 مرحب")

	assert.Equal(t, script.RequiresAccuratePass, cls)
}

func TestDetector_Classify_LatinOnlyStaysFast(t *testing.T) {
	d := script.NewDetector(0.15)

	_, cls := d.ClassifyText("TOTAL DUE: 450.00 USD")

	assert.Equal(t, script.FastPassSufficient, cls)
}

func TestDetector_Classify_EmptyTextStaysFast(t *testing.T) {
	d := script.NewDetector(0.15)

	dist, cls := d.ClassifyText("   ")

	assert.Equal(t, 0, dist.Total)
	assert.Equal(t, script.FastPassSufficient, cls)
}

func TestDetector_Classify_BelowThresholdStaysFast(t *testing.T) {
	d := script.NewDetector(0.5)

	// 25% Arabic is below a 50% threshold.
	_, cls := d.ClassifyText("abcdefghijkl مرحب")

	assert.Equal(t, script.FastPassSufficient, cls)
}

func TestDetector_TagRegions(t *testing.T) {
	d := script.NewDetector(0.15)
	regions := []domain.TextRegion{
		{Text: "hello"},
		{Text: "مرحبا"},
		{Text: ""},
	}

	d.TagRegions(regions)

	assert.Equal(t, domain.ScriptLatin, regions[0].Script)
	assert.Equal(t, domain.ScriptArabic, regions[1].Script)
	assert.Equal(t, domain.ScriptOther, regions[2].Script)
}
