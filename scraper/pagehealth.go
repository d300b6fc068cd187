package scraper

import (
	"math"
	"sync"
	"time"

	"github.com/go-rod/rod"
)

// Retirement thresholds for pooled tabs.
const (
	maxErrScore = 3.0
	maxUses     = 50
	maxPageAge  = 50 * time.Minute
)

// pageHealth tracks how a pooled tab has behaved.
//
// Scoring rules:
//   - Success: errScore -= 0.5 (min 0)
//   - Failure: errScore += 1.0
//
// A tab is retired once errScore >= 3, after 50 uses, or after 50 minutes.
type pageHealth struct {
	errScore float64
	useCount int
	created  time.Time
}

func (h *pageHealth) record(success bool) {
	h.useCount++
	if success {
		h.errScore = math.Max(0, h.errScore-0.5)
	} else {
		h.errScore += 1.0
	}
}

func (h *pageHealth) shouldRetire(now time.Time) bool {
	return h.errScore >= maxErrScore ||
		h.useCount >= maxUses ||
		now.Sub(h.created) >= maxPageAge
}

// healthBook maps live pool pages to their health.
type healthBook struct {
	mu    sync.Mutex
	pages map[*rod.Page]*pageHealth
}

func newHealthBook() *healthBook {
	return &healthBook{pages: make(map[*rod.Page]*pageHealth)}
}

// record scores one use of p and reports whether it should leave the pool.
// Retired pages are forgotten.
func (b *healthBook) record(p *rod.Page, success bool) (retire bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	h, ok := b.pages[p]
	if !ok {
		h = &pageHealth{created: time.Now()}
		b.pages[p] = h
	}
	h.record(success)
	if h.shouldRetire(time.Now()) {
		delete(b.pages, p)
		return true
	}
	return false
}
