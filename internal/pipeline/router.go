// Package pipeline contains the per-page routing state machine, the
// confidence aggregation policy, and the reading-order assembler.
package pipeline

import (
	"context"
	"log"
	"time"

	"docpipe/internal/config"
	"docpipe/internal/domain"
	"docpipe/internal/port"
	"docpipe/internal/script"
)

// RouterState is one step of the per-page decision procedure.
type RouterState string

const (
	StateReceived     RouterState = "received"
	StateFastPass     RouterState = "fast-pass"
	StateDetecting    RouterState = "detecting"
	StateEscalating   RouterState = "escalating"
	StateAccuratePass RouterState = "accurate-pass"
	StateAccepted     RouterState = "accepted"
	StateFailed       RouterState = "failed"
)

// Router drives a rasterized page through the fast engine, the script
// detector, and, when the page needs it, the accurate engine. Engines are
// stateless per call; the router holds no shared mutable engine state, so
// one Router serves all pages and documents concurrently.
type Router struct {
	fast        port.OCREngine
	accurate    port.OCREngine
	detector    *script.Detector
	callTimeout time.Duration
	maxRetries  int
}

// NewRouter creates a Router.
func NewRouter(fast, accurate port.OCREngine, detector *script.Detector, cfg *config.OCRConfig) *Router {
	return &Router{
		fast:        fast,
		accurate:    accurate,
		detector:    detector,
		callTimeout: cfg.Timeout,
		maxRetries:  cfg.MaxRetries,
	}
}

// RoutePage mutates page to a terminal state. Pages already terminal
// (digital text accepted at extraction, or parse failures) pass through
// untouched. The state sequence is logged at each transition so escalation
// decisions can be audited per page.
func (r *Router) RoutePage(ctx context.Context, docID string, page *domain.Page) {
	if page.State != domain.PageStatePending {
		return
	}

	// Received -> FastPass
	fastRes, err := r.invoke(ctx, r.fast, page)
	if err != nil {
		r.fail(docID, page, StateFastPass, err)
		return
	}
	page.FastPassMS = fastRes.Duration.Milliseconds()

	// FastPass -> Detecting
	fastText := fastRes.Text()
	dist, cls := r.detector.ClassifyText(fastText)

	if cls == script.FastPassSufficient && dist.Total > 0 {
		// Detecting -> Accepted
		r.accept(docID, page, fastRes, dist)
		return
	}

	// Detecting -> Escalating -> AccuratePass. Two ways here: meaningful
	// Arabic content, or an empty fast result. A page only counts as empty
	// after neither engine finds text.
	if dist.Total > 0 {
		log.Printf("router: doc=%s page=%d escalating (arabic=%.2f)", docID, page.Index, dist.Arabic)
	} else {
		log.Printf("router: doc=%s page=%d escalating (fast pass found no text)", docID, page.Index)
	}

	accRes, err := r.invoke(ctx, r.accurate, page)
	if err != nil {
		r.fail(docID, page, StateAccuratePass, err)
		return
	}
	page.AccuratePassMS = accRes.Duration.Milliseconds()

	// The fast result's text is discarded; only its timing survives in
	// metadata. The accurate result is authoritative.
	accDist := r.detector.Distribution(accRes.Text())
	r.accept(docID, page, accRes, accDist)
}

// invoke calls one engine with a per-call timeout, retrying transient
// failures up to the configured limit. Permanent failures and parent-context
// cancellation are returned immediately.
func (r *Router) invoke(ctx context.Context, engine port.OCREngine, page *domain.Page) (*domain.OCRResult, error) {
	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, r.callTimeout)
		res, err := engine.Recognize(callCtx, page)
		cancel()
		if err == nil {
			return res, nil
		}
		lastErr = err
		if !domain.IsTransientEngineError(err) || ctx.Err() != nil {
			return nil, err
		}
		log.Printf("router: %s engine transient failure on page %d (attempt %d/%d): %v",
			engine.ID(), page.Index, attempt+1, r.maxRetries+1, err)
	}
	return nil, lastErr
}

func (r *Router) accept(docID string, page *domain.Page, res *domain.OCRResult, dist domain.ScriptDistribution) {
	page.Regions = res.Regions
	page.Engine = res.Engine
	page.Script = dist
	page.State = domain.PageStateAccepted
	r.detector.TagRegions(page.Regions)

	if dist.Total == 0 {
		// A blank scan is valid content, distinct from a failure.
		page.EmptyPage = true
		page.Regions = nil
	}
	log.Printf("router: doc=%s page=%d accepted engine=%s regions=%d empty=%t",
		docID, page.Index, page.Engine, len(page.Regions), page.EmptyPage)
}

func (r *Router) fail(docID string, page *domain.Page, state RouterState, err error) {
	page.State = domain.PageStateFailed
	page.FailureReason = err.Error()
	log.Printf("router: doc=%s page=%d failed in %s: %v", docID, page.Index, state, err)
}
