// Package ocr provides the two engine adapters the router chooses between.
// Both wrap Tesseract via gosseract; they differ in language packs, layout
// analysis, and whether paragraph-level reading order is reconstructed.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/otiai10/gosseract/v2"

	"docpipe/internal/config"
	"docpipe/internal/domain"
)

// TesseractEngine implements port.OCREngine.
type TesseractEngine struct {
	id            domain.EngineID
	languages     []string
	level         gosseract.PageIteratorLevel
	pageSegMode   gosseract.PageSegMode
	clientFactory func() *gosseract.Client
}

// NewFastEngine builds the speed-optimized adapter: Latin/numeric language
// data, line-level regions, no paragraph reconstruction.
func NewFastEngine(cfg *config.OCRConfig) *TesseractEngine {
	return &TesseractEngine{
		id:            domain.EngineFast,
		languages:     cfg.FastLanguages,
		level:         gosseract.RIL_TEXTLINE,
		pageSegMode:   gosseract.PSM_SPARSE_TEXT,
		clientFactory: gosseract.NewClient,
	}
}

// NewAccurateEngine builds the accuracy-optimized adapter: Arabic plus Latin
// language data, full automatic layout analysis, paragraph-level regions so
// the assembler can rebuild right-to-left reading order.
func NewAccurateEngine(cfg *config.OCRConfig) *TesseractEngine {
	return &TesseractEngine{
		id:            domain.EngineAccurate,
		languages:     cfg.AccurateLanguages,
		level:         gosseract.RIL_PARA,
		pageSegMode:   gosseract.PSM_AUTO,
		clientFactory: gosseract.NewClient,
	}
}

// ID returns the engine identifier recorded in page metadata.
func (e *TesseractEngine) ID() domain.EngineID { return e.id }

// Recognize runs OCR over the page's raster. The recognition itself is a
// blocking C call, so it runs in a goroutine and the context deadline is
// honored by abandoning the call; a timeout surfaces as a transient
// EngineError the router may retry.
func (e *TesseractEngine) Recognize(ctx context.Context, page *domain.Page) (*domain.OCRResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, &domain.EngineError{Engine: e.id, Transient: true, Err: err}
	}
	if len(page.Image) == 0 {
		return nil, &domain.EngineError{
			Engine: e.id,
			Err:    fmt.Errorf("page %d has no raster image", page.Index),
		}
	}

	type outcome struct {
		result *domain.OCRResult
		err    error
	}
	ch := make(chan outcome, 1)
	start := time.Now()

	go func() {
		regions, err := e.recognize(page.Image)
		if err != nil {
			ch <- outcome{err: err}
			return
		}
		ch <- outcome{result: &domain.OCRResult{
			Regions:  regions,
			Engine:   e.id,
			Duration: time.Since(start),
		}}
	}()

	select {
	case <-ctx.Done():
		return nil, &domain.EngineError{Engine: e.id, Transient: true, Err: ctx.Err()}
	case out := <-ch:
		if out.err != nil {
			return nil, e.classify(out.err)
		}
		return out.result, nil
	}
}

func (e *TesseractEngine) recognize(image []byte) ([]domain.TextRegion, error) {
	client := e.clientFactory()
	defer client.Close()

	if err := client.SetImageFromBytes(image); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}
	if len(e.languages) > 0 {
		if err := client.SetLanguage(e.languages...); err != nil {
			return nil, fmt.Errorf("set languages: %w", err)
		}
	}
	if err := client.SetPageSegMode(e.pageSegMode); err != nil {
		return nil, fmt.Errorf("set page seg mode: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(e.level)
	if err != nil {
		return nil, fmt.Errorf("bounding boxes: %w", err)
	}

	regions := make([]domain.TextRegion, 0, len(boxes))
	for _, box := range boxes {
		text := strings.TrimSpace(box.Word)
		if text == "" {
			continue
		}
		regions = append(regions, domain.TextRegion{
			Bounds: domain.Rect{
				X:      float64(box.Box.Min.X),
				Y:      float64(box.Box.Min.Y),
				Width:  float64(box.Box.Dx()),
				Height: float64(box.Box.Dy()),
			},
			Text:       text,
			Confidence: clampConfidence(box.Confidence / 100),
		})
	}
	return regions, nil
}

// classify decides whether an engine failure is worth retrying. Undecodable
// input will not get better on a second attempt; anything else is treated
// as transient.
func (e *TesseractEngine) classify(err error) error {
	msg := strings.ToLower(err.Error())
	permanent := strings.Contains(msg, "set image") ||
		strings.Contains(msg, "unsupported") ||
		strings.Contains(msg, "corrupt")
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		permanent = false
	}
	return &domain.EngineError{Engine: e.id, Transient: !permanent, Err: err}
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
