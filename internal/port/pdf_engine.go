package port

import "image"

// PDFDocument is an open PDF exposing the two capabilities the pipeline
// needs: the native text layer and a page raster.
type PDFDocument interface {
	PageCount() int
	// PageText returns the native text layer of a page, empty if the page
	// has none.
	PageText(index int) (string, error)
	// RenderPage rasterizes a page at the given DPI.
	RenderPage(index int, dpi float64) (image.Image, error)
	Close() error
}

// PDFEngine opens PDF documents from raw bytes.
type PDFEngine interface {
	Open(data []byte) (PDFDocument, error)
}
