package extract_test

import (
	"errors"
	"image"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docpipe/internal/config"
	"docpipe/internal/domain"
	"docpipe/internal/extract"
	"docpipe/internal/port"
	"docpipe/internal/script"
)

// fakePDFDocument scripts per-page text and render behavior.
type fakePDFDocument struct {
	texts      []string
	textErrs   []error
	renderErrs []error
	rendered   map[int]bool
}

func (f *fakePDFDocument) PageCount() int { return len(f.texts) }

func (f *fakePDFDocument) PageText(index int) (string, error) {
	if f.textErrs != nil && f.textErrs[index] != nil {
		return "", f.textErrs[index]
	}
	return f.texts[index], nil
}

func (f *fakePDFDocument) RenderPage(index int, dpi float64) (image.Image, error) {
	if f.renderErrs != nil && f.renderErrs[index] != nil {
		return nil, f.renderErrs[index]
	}
	if f.rendered == nil {
		f.rendered = map[int]bool{}
	}
	f.rendered[index] = true
	return image.NewRGBA(image.Rect(0, 0, 64, 64)), nil
}

func (f *fakePDFDocument) Close() error { return nil }

type fakePDFEngine struct {
	doc     *fakePDFDocument
	openErr error
}

func (f *fakePDFEngine) Open(data []byte) (port.PDFDocument, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	return f.doc, nil
}

func testPipelineConfig() *config.PipelineConfig {
	return &config.PipelineConfig{
		ArabicThreshold: 0.15,
		MinTextChars:    16,
		RasterDPI:       300,
		MaxRasterEdge:   4096,
	}
}

func newExtractor(pdf port.PDFEngine) *extract.Extractor {
	cfg := testPipelineConfig()
	return extract.NewExtractor(pdf, script.NewDetector(cfg.ArabicThreshold), cfg)
}

func newDoc(ft domain.FileType) *domain.Document {
	return &domain.Document{ID: uuid.New(), FileType: ft}
}

func TestExtractPages_DigitalPDF_NeverRasterizes(t *testing.T) {
	pdf := &fakePDFEngine{doc: &fakePDFDocument{texts: []string{
		"This is page one with plenty of selectable text.",
		"Page two also carries a full digital text layer.",
		"And page three rounds out the digital document.",
	}}}
	doc := newDoc(domain.FileTypePDF)

	err := newExtractor(pdf).ExtractPages(doc, []byte("%PDF-1.4"))

	require.NoError(t, err)
	require.Len(t, doc.Pages, 3)
	for i, page := range doc.Pages {
		assert.Equal(t, i, page.Index)
		assert.Equal(t, domain.PageSourceDigitalText, page.Source)
		assert.Equal(t, domain.PageStateAccepted, page.State)
		assert.Equal(t, domain.EngineNone, page.Engine)
		assert.Equal(t, 1.0, page.Confidence)
	}
	assert.Empty(t, pdf.doc.rendered, "digital pages must not be rasterized")
}

func TestExtractPages_ScannedPDF_RasterizesThinTextLayer(t *testing.T) {
	// Below the 16-char density floor: treated as no text layer.
	pdf := &fakePDFEngine{doc: &fakePDFDocument{texts: []string{"p.1"}}}
	doc := newDoc(domain.FileTypePDF)

	err := newExtractor(pdf).ExtractPages(doc, []byte("%PDF-1.4"))

	require.NoError(t, err)
	require.Len(t, doc.Pages, 1)
	page := doc.Pages[0]
	assert.Equal(t, domain.PageSourceRaster, page.Source)
	assert.Equal(t, domain.PageStatePending, page.State)
	assert.NotEmpty(t, page.Image)
}

func TestExtractPages_CorruptPageIsolated(t *testing.T) {
	boom := errors.New("corrupt content stream")
	pdf := &fakePDFEngine{doc: &fakePDFDocument{
		texts:      []string{"Page one has a perfectly fine text layer here.", ""},
		textErrs:   []error{nil, boom},
		renderErrs: []error{nil, boom},
	}}
	doc := newDoc(domain.FileTypePDF)

	err := newExtractor(pdf).ExtractPages(doc, []byte("%PDF-1.4"))

	require.NoError(t, err)
	require.Len(t, doc.Pages, 2, "failed pages stay in the output")
	assert.Equal(t, domain.PageStateAccepted, doc.Pages[0].State)
	assert.Equal(t, domain.PageStateFailed, doc.Pages[1].State)
	assert.Contains(t, doc.Pages[1].FailureReason, "parse-error")
}

func TestExtractPages_UnreadableDocument(t *testing.T) {
	pdf := &fakePDFEngine{openErr: errors.New("not a pdf")}
	doc := newDoc(domain.FileTypePDF)

	err := newExtractor(pdf).ExtractPages(doc, []byte("garbage"))

	assert.ErrorIs(t, err, domain.ErrDocumentUnreadable)
}

func TestExtractPages_Image_SinglePendingRasterPage(t *testing.T) {
	doc := newDoc(domain.FileTypePNG)
	raw := []byte{0x89, 0x50, 0x4E, 0x47}

	err := newExtractor(&fakePDFEngine{}).ExtractPages(doc, raw)

	require.NoError(t, err)
	require.Len(t, doc.Pages, 1)
	assert.Equal(t, domain.PageSourceRaster, doc.Pages[0].Source)
	assert.Equal(t, raw, doc.Pages[0].Image)
	assert.Equal(t, domain.PageStatePending, doc.Pages[0].State)
}

func TestExtractPages_PlainText_DirectRead(t *testing.T) {
	doc := newDoc(domain.FileTypeTXT)

	err := newExtractor(&fakePDFEngine{}).ExtractPages(doc, []byte("hello world"))

	require.NoError(t, err)
	require.Len(t, doc.Pages, 1)
	page := doc.Pages[0]
	assert.Equal(t, domain.PageStateAccepted, page.State)
	assert.Equal(t, 1.0, page.Confidence)
	assert.Equal(t, "hello world", page.Regions[0].Text)
}

func TestExtractPages_EmptyTextFile_EmptyPageFlag(t *testing.T) {
	doc := newDoc(domain.FileTypeTXT)

	err := newExtractor(&fakePDFEngine{}).ExtractPages(doc, []byte("   \n"))

	require.NoError(t, err)
	page := doc.Pages[0]
	assert.Equal(t, domain.PageStateAccepted, page.State)
	assert.True(t, page.EmptyPage)
	assert.Equal(t, 0.0, page.Confidence)
}
