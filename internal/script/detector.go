// Package script classifies recognized text by writing system. The router
// uses it to decide whether a page needs the accurate engine pass.
package script

import (
	"unicode"

	"docpipe/internal/domain"
)

// Classification is the routing decision for a run of text.
type Classification string

const (
	FastPassSufficient   Classification = "fast-pass-sufficient"
	RequiresAccuratePass Classification = "requires-accurate-pass"
)

// Detector computes script distributions and applies the escalation
// threshold. The threshold is asymmetric on purpose: Latin/numeric text
// tolerates the fast engine, while even a moderate Arabic minority must be
// re-read by the accurate engine because the fast one mis-orders cursive
// right-to-left runs.
type Detector struct {
	arabicThreshold float64
}

// NewDetector creates a Detector with the given Arabic-fraction threshold.
func NewDetector(arabicThreshold float64) *Detector {
	return &Detector{arabicThreshold: arabicThreshold}
}

// Distribution returns the character-class makeup of text. Whitespace and
// punctuation are ignored; digits count as Latin since the fast engine
// handles them well.
func (d *Detector) Distribution(text string) domain.ScriptDistribution {
	var arabic, latin, other int
	for _, r := range text {
		switch {
		case unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r):
			continue
		case unicode.Is(unicode.Arabic, r):
			arabic++
		case unicode.Is(unicode.Latin, r) || unicode.IsDigit(r):
			latin++
		default:
			other++
		}
	}

	total := arabic + latin + other
	dist := domain.ScriptDistribution{Total: total}
	if total == 0 {
		return dist
	}
	dist.Arabic = float64(arabic) / float64(total)
	dist.Latin = float64(latin) / float64(total)
	dist.Other = float64(other) / float64(total)
	return dist
}

// Classify applies the escalation rule to a distribution.
func (d *Detector) Classify(dist domain.ScriptDistribution) Classification {
	if dist.Total > 0 && dist.Arabic > d.arabicThreshold {
		return RequiresAccuratePass
	}
	return FastPassSufficient
}

// ClassifyText is Distribution followed by Classify.
func (d *Detector) ClassifyText(text string) (domain.ScriptDistribution, Classification) {
	dist := d.Distribution(text)
	return dist, d.Classify(dist)
}

// TagRegions stamps each region with its own dominant script.
func (d *Detector) TagRegions(regions []domain.TextRegion) {
	for i := range regions {
		regions[i].Script = d.Distribution(regions[i].Text).Dominant()
	}
}
