package scraper

import (
	"testing"
	"time"

	"github.com/go-rod/rod"
)

func TestPageHealth_FailuresRetire(t *testing.T) {
	h := &pageHealth{created: time.Now()}
	for i := 0; i < 2; i++ {
		h.record(false)
	}
	if h.shouldRetire(time.Now()) {
		t.Fatal("two failures should not retire a page")
	}
	h.record(false)
	if !h.shouldRetire(time.Now()) {
		t.Fatal("three failures should retire a page")
	}
}

func TestPageHealth_SuccessHeals(t *testing.T) {
	h := &pageHealth{created: time.Now()}
	h.record(false)
	h.record(false)
	h.record(true)
	h.record(true)
	h.record(true)
	if h.errScore != 0.5 {
		t.Errorf("expected errScore 0.5, got %v", h.errScore)
	}
	h.record(true)
	h.record(true)
	if h.errScore != 0 {
		t.Errorf("errScore should floor at 0, got %v", h.errScore)
	}
}

func TestPageHealth_AgeAndUse(t *testing.T) {
	old := &pageHealth{created: time.Now().Add(-time.Hour)}
	if !old.shouldRetire(time.Now()) {
		t.Error("page older than max age should retire")
	}

	busy := &pageHealth{created: time.Now(), useCount: maxUses}
	if !busy.shouldRetire(time.Now()) {
		t.Error("page past max uses should retire")
	}
}

func TestHealthBook_ForgetsRetired(t *testing.T) {
	b := newHealthBook()
	p := &rod.Page{}

	for i := 0; i < 2; i++ {
		if b.record(p, false) {
			t.Fatalf("retired too early at failure %d", i+1)
		}
	}
	if !b.record(p, false) {
		t.Fatal("third failure should retire")
	}
	if len(b.pages) != 0 {
		t.Errorf("retired page still tracked: %d entries", len(b.pages))
	}
}
