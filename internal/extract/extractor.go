// Package extract turns a submitted file into the ordered Page sequence the
// pipeline processes. PDFs try the native text layer first and fall back to
// rasterizing; images and plain text become single-page documents.
package extract

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strings"
	"unicode/utf8"

	xdraw "golang.org/x/image/draw"

	"docpipe/internal/config"
	"docpipe/internal/domain"
	"docpipe/internal/port"
	"docpipe/internal/script"
)

// Extractor builds domain.Page values from raw file bytes.
type Extractor struct {
	pdf      port.PDFEngine
	detector *script.Detector
	cfg      *config.PipelineConfig
}

// NewExtractor creates an Extractor.
func NewExtractor(pdf port.PDFEngine, detector *script.Detector, cfg *config.PipelineConfig) *Extractor {
	return &Extractor{pdf: pdf, detector: detector, cfg: cfg}
}

// ExtractPages fills doc.Pages from data. Per-page failures are isolated:
// a corrupt page is marked failed-page with a parse-error reason and its
// siblings keep going. An error is returned only when the document itself
// cannot be opened.
func (e *Extractor) ExtractPages(doc *domain.Document, data []byte) error {
	switch doc.FileType {
	case domain.FileTypePDF:
		return e.extractPDF(doc, data)
	case domain.FileTypeJPG, domain.FileTypePNG:
		doc.Pages = []*domain.Page{{
			Index:  0,
			Source: domain.PageSourceRaster,
			Image:  data,
			State:  domain.PageStatePending,
		}}
		return nil
	case domain.FileTypeTXT:
		return e.extractText(doc, data)
	default:
		return domain.ErrUnsupportedFormat
	}
}

func (e *Extractor) extractPDF(doc *domain.Document, data []byte) error {
	pdfDoc, err := e.pdf.Open(data)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDocumentUnreadable, err)
	}
	defer pdfDoc.Close()

	count := pdfDoc.PageCount()
	doc.Pages = make([]*domain.Page, count)
	for i := 0; i < count; i++ {
		doc.Pages[i] = e.extractPDFPage(pdfDoc, i)
	}
	return nil
}

// extractPDFPage never returns an error: failures become a failed-page
// marker so the page still appears in the output.
func (e *Extractor) extractPDFPage(pdfDoc port.PDFDocument, index int) *domain.Page {
	page := &domain.Page{Index: index, State: domain.PageStatePending}

	text, err := pdfDoc.PageText(index)
	if err == nil && e.hasUsableTextLayer(text) {
		page.Source = domain.PageSourceDigitalText
		e.acceptDigitalText(page, text)
		return page
	}
	// Text layer absent or too thin; rasterize. A text-layer read error on
	// its own does not fail the page as long as the raster succeeds.
	img, err := pdfDoc.RenderPage(index, e.cfg.RasterDPI)
	if err != nil {
		page.Source = domain.PageSourceRaster
		page.State = domain.PageStateFailed
		page.FailureReason = (&domain.ParseError{PageIndex: index, Err: err}).Error()
		return page
	}

	encoded, err := e.encodeRaster(img)
	if err != nil {
		page.Source = domain.PageSourceRaster
		page.State = domain.PageStateFailed
		page.FailureReason = (&domain.ParseError{PageIndex: index, Err: err}).Error()
		return page
	}

	page.Source = domain.PageSourceRaster
	page.Image = encoded
	return page
}

func (e *Extractor) extractText(doc *domain.Document, data []byte) error {
	if !utf8.Valid(data) {
		return fmt.Errorf("%w: not valid utf-8", domain.ErrDocumentUnreadable)
	}
	page := &domain.Page{Index: 0, Source: domain.PageSourceDigitalText}
	e.acceptDigitalText(page, string(data))
	doc.Pages = []*domain.Page{page}
	return nil
}

// acceptDigitalText finalizes a page whose content came from a native text
// layer. No engine runs for these pages, so confidence is exact.
func (e *Extractor) acceptDigitalText(page *domain.Page, text string) {
	text = strings.TrimSpace(text)
	page.Engine = domain.EngineNone
	page.State = domain.PageStateAccepted
	page.Script = e.detector.Distribution(text)
	if text == "" {
		page.EmptyPage = true
		page.Confidence = 0
		return
	}
	page.Confidence = 1.0
	page.Regions = []domain.TextRegion{{
		Text:       text,
		Confidence: 1.0,
		Script:     page.Script.Dominant(),
	}}
}

// hasUsableTextLayer applies the character-density floor: a handful of stray
// glyphs on an otherwise scanned page does not count as a text layer.
func (e *Extractor) hasUsableTextLayer(text string) bool {
	count := 0
	for _, r := range text {
		if !strings.ContainsRune(" \t\r\n", r) {
			count++
		}
	}
	return count >= e.cfg.MinTextChars
}

// encodeRaster normalizes a rendered page to PNG, downscaling when either
// edge exceeds the configured cap.
func (e *Extractor) encodeRaster(img image.Image) ([]byte, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if max := e.cfg.MaxRasterEdge; max > 0 && (w > max || h > max) {
		scale := float64(max) / float64(w)
		if h > w {
			scale = float64(max) / float64(h)
		}
		dst := image.NewRGBA(image.Rect(0, 0, int(float64(w)*scale), int(float64(h)*scale)))
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, xdraw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding raster: %w", err)
	}
	return buf.Bytes(), nil
}
