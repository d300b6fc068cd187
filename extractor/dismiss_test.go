package extractor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDismissClicksEveryMatch(t *testing.T) {
	close1 := &fakeElement{}
	close2 := &fakeElement{}
	broken := &fakeElement{clickErr: errDetached}
	modal := &fakeElement{}
	page := &fakePage{elements: map[string][]*fakeElement{
		`[aria-label="Cerrar"]`: {close1, broken, close2},
		".modal-close":          {modal},
	}}

	NewDismisser(0, 0).Dismiss(context.Background(), page)

	assert.Equal(t, 1, close1.clicks)
	assert.Equal(t, 1, close2.clicks)
	assert.Equal(t, 0, broken.clicks)
	assert.Equal(t, 1, modal.clicks)
	assert.Equal(t, popupSelectors, page.queries)
}

func TestDismissNoPopups(t *testing.T) {
	page := htmlPage(t, `<html><body><button class="modal-close">x</button></body></html>`)

	// static pages cannot click; the failure is swallowed
	assert.NotPanics(t, func() {
		NewDismisser(0, 0).Dismiss(context.Background(), page)
	})
}

func TestDismissStopsOnCancel(t *testing.T) {
	el := &fakeElement{}
	page := &fakePage{elements: map[string][]*fakeElement{".modal-close": {el}}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	NewDismisser(0, 0).Dismiss(ctx, page)

	assert.Zero(t, el.clicks)
	assert.Empty(t, page.queries)
}
