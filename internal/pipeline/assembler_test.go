package pipeline_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"docpipe/internal/domain"
	"docpipe/internal/pipeline"
)

func region(text string, script domain.Script, x, y, w, h float64) domain.TextRegion {
	return domain.TextRegion{
		Text:   text,
		Script: script,
		Bounds: domain.Rect{X: x, Y: y, Width: w, Height: h},
	}
}

func acceptedPage(regions ...domain.TextRegion) *domain.Page {
	return &domain.Page{State: domain.PageStateAccepted, Regions: regions}
}

func TestAssemblePage_LatinLeftToRight(t *testing.T) {
	asm := pipeline.NewAssembler()

	// Regions deliberately out of geometric order.
	page := acceptedPage(
		region("world", domain.ScriptLatin, 120, 10, 80, 20),
		region("hello", domain.ScriptLatin, 10, 10, 80, 20),
	)
	assert.Equal(t, "hello world", asm.AssemblePage(page))
	assert.Equal(t, 0, page.Regions[1].ReadingOrder)
	assert.Equal(t, 1, page.Regions[0].ReadingOrder)
}

func TestAssemblePage_ArabicRightToLeft(t *testing.T) {
	asm := pipeline.NewAssembler()

	// Arabic reads from the rightmost region: "مرحبا" sits at the right edge
	// and must come first even though it has the larger X.
	page := acceptedPage(
		region("بك", domain.ScriptArabic, 10, 10, 80, 20),
		region("مرحبا", domain.ScriptArabic, 120, 10, 80, 20),
	)
	assert.Equal(t, "مرحبا بك", asm.AssemblePage(page))
}

func TestAssemblePage_MixedScriptClustersKeepOwnDirection(t *testing.T) {
	asm := pipeline.NewAssembler()

	// Two vertically separated paragraphs: a Latin header and an Arabic body.
	page := acceptedPage(
		region("Invoice", domain.ScriptLatin, 10, 10, 60, 20),
		region("2024", domain.ScriptLatin, 80, 10, 40, 20),
		region("دفع", domain.ScriptArabic, 10, 200, 60, 20),
		region("إجمالي", domain.ScriptArabic, 80, 200, 70, 20),
	)
	got := asm.AssemblePage(page)
	assert.Equal(t, "Invoice 2024\n\nإجمالي دفع", got)
}

func TestAssemblePage_MultipleLinesWithinParagraph(t *testing.T) {
	asm := pipeline.NewAssembler()

	page := acceptedPage(
		region("first", domain.ScriptLatin, 10, 10, 50, 20),
		region("line", domain.ScriptLatin, 70, 10, 50, 20),
		region("second", domain.ScriptLatin, 10, 32, 60, 20),
	)
	assert.Equal(t, "first line\nsecond", asm.AssemblePage(page))
}

func TestAssemblePage_FailedOrEmptyYieldsEmptyString(t *testing.T) {
	asm := pipeline.NewAssembler()

	failed := &domain.Page{State: domain.PageStateFailed}
	empty := &domain.Page{State: domain.PageStateAccepted, EmptyPage: true}
	assert.Empty(t, asm.AssemblePage(failed))
	assert.Empty(t, asm.AssemblePage(empty))
}

func TestAssembleDocument_SeparatorPreservesPagePositions(t *testing.T) {
	asm := pipeline.NewAssembler()

	doc := &domain.Document{Pages: []*domain.Page{
		acceptedPage(region("one", domain.ScriptLatin, 10, 10, 40, 20)),
		{State: domain.PageStateFailed},
		acceptedPage(region("three", domain.ScriptLatin, 10, 10, 40, 20)),
	}}
	got := asm.AssembleDocument(doc)

	parts := strings.Split(got, "\n-------------------\n")
	assert.Len(t, parts, 3)
	assert.Equal(t, "one", parts[0])
	assert.Empty(t, parts[1], "failed page keeps its slot")
	assert.Equal(t, "three", parts[2])
}

func TestAssemblePage_ReadingOrderStampedSequentially(t *testing.T) {
	asm := pipeline.NewAssembler()

	page := acceptedPage(
		region("b", domain.ScriptLatin, 70, 10, 50, 20),
		region("a", domain.ScriptLatin, 10, 10, 50, 20),
		region("c", domain.ScriptLatin, 10, 60, 50, 20),
	)
	asm.AssemblePage(page)

	seen := map[int]bool{}
	for _, reg := range page.Regions {
		seen[reg.ReadingOrder] = true
	}
	assert.Equal(t, map[int]bool{0: true, 1: true, 2: true}, seen)
}
