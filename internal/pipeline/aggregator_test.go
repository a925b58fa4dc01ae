package pipeline_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"docpipe/internal/domain"
	"docpipe/internal/pipeline"
)

func TestPageConfidence_LengthWeighted(t *testing.T) {
	agg := pipeline.NewAggregator(0.5)

	regions := []domain.TextRegion{
		{Text: "aaaaaaaa", Confidence: 1.0}, // 8 runes
		{Text: "bb", Confidence: 0.0},       // 2 runes
	}
	assert.InDelta(t, 0.8, agg.PageConfidence(regions), 1e-9)
}

func TestPageConfidence_NoRegions_Zero(t *testing.T) {
	agg := pipeline.NewAggregator(0.5)
	assert.Equal(t, 0.0, agg.PageConfidence(nil))
}

func TestPageConfidence_ArabicRunesCountedAsRunes(t *testing.T) {
	agg := pipeline.NewAggregator(0.5)

	// "مرحبا" is 5 runes but 10 bytes; byte-weighting would skew this mean.
	regions := []domain.TextRegion{
		{Text: "مرحبا", Confidence: 1.0},
		{Text: "hello", Confidence: 0.5},
	}
	assert.InDelta(t, 0.75, agg.PageConfidence(regions), 1e-9)
}

func TestDocumentConfidence_FailedPagesContributeZero(t *testing.T) {
	agg := pipeline.NewAggregator(0.5)

	pages := []*domain.Page{
		{State: domain.PageStateAccepted, Confidence: 0.9},
		{State: domain.PageStateFailed, Confidence: 0},
		{State: domain.PageStateAccepted, Confidence: 0.6},
	}
	assert.InDelta(t, 0.5, agg.DocumentConfidence(pages), 1e-9)
}

func TestDocumentConfidence_NoPages_Zero(t *testing.T) {
	agg := pipeline.NewAggregator(0.5)
	assert.Equal(t, 0.0, agg.DocumentConfidence(nil))
}

func TestAssess_FailedPageRejected(t *testing.T) {
	agg := pipeline.NewAggregator(0.5)

	verdict := agg.Assess(&domain.Page{
		State:         domain.PageStateFailed,
		FailureReason: "engine error",
	})
	assert.Equal(t, domain.VerdictReject, verdict.Verdict)
	assert.Equal(t, "engine error", verdict.Reason)
}

func TestAssess_EmptyPageAcceptedAtZero(t *testing.T) {
	agg := pipeline.NewAggregator(0.5)

	verdict := agg.Assess(&domain.Page{
		State:     domain.PageStateAccepted,
		EmptyPage: true,
	})
	assert.Equal(t, domain.VerdictAccept, verdict.Verdict)
	assert.Equal(t, 0.0, verdict.Score)
	assert.Equal(t, "empty-page", verdict.Reason)
}

func TestAssess_LowConfidenceAcceptedWithReason(t *testing.T) {
	agg := pipeline.NewAggregator(0.5)

	verdict := agg.Assess(&domain.Page{
		State:      domain.PageStateAccepted,
		Confidence: 0.3,
	})
	assert.Equal(t, domain.VerdictAccept, verdict.Verdict, "low confidence flags, never rejects")
	assert.InDelta(t, 0.3, verdict.Score, 1e-9)
	assert.Contains(t, verdict.Reason, "low-confidence")
}

func TestAssess_ConfidentPageAcceptedClean(t *testing.T) {
	agg := pipeline.NewAggregator(0.5)

	verdict := agg.Assess(&domain.Page{
		State:      domain.PageStateAccepted,
		Confidence: 0.92,
	})
	assert.Equal(t, domain.VerdictAccept, verdict.Verdict)
	assert.Empty(t, verdict.Reason)
}
