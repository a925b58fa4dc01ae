package pipeline

import (
	"sort"
	"strings"

	"docpipe/internal/domain"
)

// pageSeparator delimits pages in the assembled document text.
const pageSeparator = "\n-------------------\n"

// Assembler reconstructs reading order. Regions are grouped into paragraph
// clusters by vertical proximity and horizontal overlap; each cluster's
// dominant script decides its line direction (right-to-left for Arabic),
// and clusters are emitted in top-to-bottom document order. This is what
// makes mixed-script pages come out human-readable.
type Assembler struct{}

// NewAssembler creates an Assembler.
func NewAssembler() *Assembler {
	return &Assembler{}
}

// AssembleDocument waits on nothing: the caller guarantees every page is
// terminal. Failed and empty pages contribute an empty slot so page
// positions stay aligned with the input.
func (a *Assembler) AssembleDocument(doc *domain.Document) string {
	parts := make([]string, len(doc.Pages))
	for i, page := range doc.Pages {
		parts[i] = a.AssemblePage(page)
	}
	return strings.Join(parts, pageSeparator)
}

// AssemblePage orders the page's regions into reading order, stamps each
// region's ReadingOrder index, and returns the page text. The structured
// region data is left otherwise unmodified for traceability.
func (a *Assembler) AssemblePage(page *domain.Page) string {
	if page.State != domain.PageStateAccepted || len(page.Regions) == 0 {
		return ""
	}

	clusters := a.clusterParagraphs(page.Regions)

	var out []string
	order := 0
	for _, cluster := range clusters {
		rtl := a.clusterScript(page.Regions, cluster) == domain.ScriptArabic
		lines := a.splitLines(page.Regions, cluster)

		var lineTexts []string
		for _, line := range lines {
			a.orderLine(page.Regions, line, rtl)
			var words []string
			for _, idx := range line {
				page.Regions[idx].ReadingOrder = order
				order++
				words = append(words, page.Regions[idx].Text)
			}
			lineTexts = append(lineTexts, strings.Join(words, " "))
		}
		out = append(out, strings.Join(lineTexts, "\n"))
	}
	return strings.Join(out, "\n\n")
}

// clusterParagraphs greedily groups region indices into paragraph clusters:
// a region joins a cluster when it sits within one median region height of
// the cluster's bottom edge and lands within the cluster's horizontal band.
func (a *Assembler) clusterParagraphs(regions []domain.TextRegion) [][]int {
	idxs := make([]int, len(regions))
	for i := range regions {
		idxs[i] = i
	}
	sort.SliceStable(idxs, func(x, y int) bool {
		return regions[idxs[x]].Bounds.Y < regions[idxs[y]].Bounds.Y
	})

	gap := a.medianHeight(regions)
	if gap <= 0 {
		gap = 1
	}
	// Words on the same line sit side by side without overlapping, so the
	// horizontal test tolerates small gaps. Column gutters are wider than
	// two text heights and still split.
	hGap := 2 * gap

	type cluster struct {
		idxs        []int
		top, bottom float64
		left, right float64
	}
	var clusters []*cluster

	for _, idx := range idxs {
		b := regions[idx].Bounds
		var best *cluster
		for _, c := range clusters {
			verticalGap := b.Y - c.bottom
			overlaps := b.X < c.right+hGap && b.X+b.Width > c.left-hGap
			if verticalGap <= gap && overlaps {
				best = c
				break
			}
		}
		if best == nil {
			clusters = append(clusters, &cluster{
				idxs:   []int{idx},
				top:    b.Y,
				bottom: b.Y + b.Height,
				left:   b.X,
				right:  b.X + b.Width,
			})
			continue
		}
		best.idxs = append(best.idxs, idx)
		if b.Y+b.Height > best.bottom {
			best.bottom = b.Y + b.Height
		}
		if b.X < best.left {
			best.left = b.X
		}
		if b.X+b.Width > best.right {
			best.right = b.X + b.Width
		}
	}

	sort.SliceStable(clusters, func(x, y int) bool { return clusters[x].top < clusters[y].top })
	out := make([][]int, len(clusters))
	for i, c := range clusters {
		out[i] = c.idxs
	}
	return out
}

// splitLines groups a cluster's regions into baseline lines by vertical
// center proximity, top-to-bottom.
func (a *Assembler) splitLines(regions []domain.TextRegion, cluster []int) [][]int {
	sorted := append([]int(nil), cluster...)
	sort.SliceStable(sorted, func(x, y int) bool {
		return center(regions[sorted[x]].Bounds) < center(regions[sorted[y]].Bounds)
	})

	var lines [][]int
	var lineBottomCenter float64
	for _, idx := range sorted {
		b := regions[idx].Bounds
		cy := center(b)
		tolerance := b.Height / 2
		if tolerance <= 0 {
			tolerance = 1
		}
		if len(lines) == 0 || cy-lineBottomCenter > tolerance {
			lines = append(lines, []int{idx})
		} else {
			lines[len(lines)-1] = append(lines[len(lines)-1], idx)
		}
		lineBottomCenter = cy
	}
	return lines
}

// orderLine sorts a line's regions right-to-left for Arabic clusters and
// left-to-right otherwise.
func (a *Assembler) orderLine(regions []domain.TextRegion, line []int, rtl bool) {
	sort.SliceStable(line, func(x, y int) bool {
		bx, by := regions[line[x]].Bounds, regions[line[y]].Bounds
		if rtl {
			return bx.X+bx.Width > by.X+by.Width
		}
		return bx.X < by.X
	})
}

// clusterScript picks the cluster's dominant script weighted by text length.
func (a *Assembler) clusterScript(regions []domain.TextRegion, cluster []int) domain.Script {
	weights := map[domain.Script]int{}
	for _, idx := range cluster {
		weights[regions[idx].Script] += len(regions[idx].Text)
	}
	best, bestWeight := domain.ScriptOther, -1
	// Deterministic tie-break: arabic, then latin, then other.
	for _, s := range []domain.Script{domain.ScriptArabic, domain.ScriptLatin, domain.ScriptOther} {
		if weights[s] > bestWeight {
			best, bestWeight = s, weights[s]
		}
	}
	return best
}

func (a *Assembler) medianHeight(regions []domain.TextRegion) float64 {
	heights := make([]float64, 0, len(regions))
	for _, r := range regions {
		if r.Bounds.Height > 0 {
			heights = append(heights, r.Bounds.Height)
		}
	}
	if len(heights) == 0 {
		return 0
	}
	sort.Float64s(heights)
	return heights[len(heights)/2]
}

func center(b domain.Rect) float64 {
	return b.Y + b.Height/2
}
