// Package pdfengine implements port.PDFEngine on top of MuPDF via go-fitz.
package pdfengine

import (
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"

	"docpipe/internal/port"
)

type fitzEngine struct{}

// New creates a MuPDF-backed PDF engine.
func New() port.PDFEngine {
	return &fitzEngine{}
}

func (e *fitzEngine) Open(data []byte) (port.PDFDocument, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}
	return &fitzDocument{doc: doc}, nil
}

type fitzDocument struct {
	doc *fitz.Document
}

func (d *fitzDocument) PageCount() int {
	return d.doc.NumPage()
}

func (d *fitzDocument) PageText(index int) (string, error) {
	text, err := d.doc.Text(index)
	if err != nil {
		return "", fmt.Errorf("extracting text layer for page %d: %w", index, err)
	}
	return text, nil
}

func (d *fitzDocument) RenderPage(index int, dpi float64) (image.Image, error) {
	img, err := d.doc.ImageDPI(index, dpi)
	if err != nil {
		return nil, fmt.Errorf("rendering page %d at %.0f dpi: %w", index, dpi, err)
	}
	return img, nil
}

func (d *fitzDocument) Close() error {
	return d.doc.Close()
}
