package pipeline

import (
	"fmt"
	"unicode/utf8"

	"docpipe/internal/domain"
)

// Aggregator merges per-region confidence into page and document scores and
// renders the accept/reject verdict. Low numeric scores never reject a page:
// low-confidence pages still carry training signal, so they are persisted
// and flagged instead of discarded.
type Aggregator struct {
	lowConfidenceThreshold float64
}

// NewAggregator creates an Aggregator.
func NewAggregator(lowConfidenceThreshold float64) *Aggregator {
	return &Aggregator{lowConfidenceThreshold: lowConfidenceThreshold}
}

// PageConfidence is the length-weighted mean of region confidences. Longer
// regions weigh more so a single tiny noisy region cannot dominate the page
// score.
func (a *Aggregator) PageConfidence(regions []domain.TextRegion) float64 {
	var weighted float64
	var total int
	for _, reg := range regions {
		n := utf8.RuneCountInString(reg.Text)
		weighted += reg.Confidence * float64(n)
		total += n
	}
	if total == 0 {
		return 0
	}
	return weighted / float64(total)
}

// DocumentConfidence is the page-count-weighted mean of page confidences,
// over every page including failed ones (which contribute zero). It is
// reproducible from the MetadataRecord alone.
func (a *Aggregator) DocumentConfidence(pages []*domain.Page) float64 {
	if len(pages) == 0 {
		return 0
	}
	var sum float64
	for _, page := range pages {
		sum += page.Confidence
	}
	return sum / float64(len(pages))
}

// Assess renders the verdict for a routed page. Only an engine-reported
// permanent failure rejects; everything else is accepted.
func (a *Aggregator) Assess(page *domain.Page) domain.QualityVerdict {
	if page.State == domain.PageStateFailed {
		return domain.QualityVerdict{
			Verdict: domain.VerdictReject,
			Score:   0,
			Reason:  page.FailureReason,
		}
	}
	score := page.Confidence
	if page.EmptyPage {
		return domain.QualityVerdict{Verdict: domain.VerdictAccept, Score: 0, Reason: "empty-page"}
	}
	if a.IsLowConfidence(score) {
		return domain.QualityVerdict{
			Verdict: domain.VerdictAccept,
			Score:   score,
			Reason:  fmt.Sprintf("low-confidence (%.2f < %.2f)", score, a.lowConfidenceThreshold),
		}
	}
	return domain.QualityVerdict{Verdict: domain.VerdictAccept, Score: score}
}

// IsLowConfidence reports whether a score lands under the metadata flag
// threshold.
func (a *Aggregator) IsLowConfidence(score float64) bool {
	return score < a.lowConfidenceThreshold
}
