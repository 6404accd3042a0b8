package pwbrowser

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopflow/internal/browser"
)

func TestEngineSelector(t *testing.T) {
	tests := []struct {
		name     string
		sel      browser.Selector
		expected string
	}{
		{"css", browser.CSS(".block-minicart"), "css=.block-minicart"},
		{"role", browser.Role("tab", ""), "role=tab"},
		{"role with name", browser.Role("button", "Add to Cart"), `role=button[name="Add to Cart"]`},
		{"text", browser.Text("You have no items in your"), "text=You have no items in your"},
		{"scope and filter are not part of the anchor", browser.Role("link", "Remove").Within(browser.CSS(".x")).Filter("Gin").First(), `role=link[name="Remove"]`},
		{"exact text", browser.ExactText("Gin"), `text="Gin"`},
		{"exact role", browser.Role("link", "Gin").Exactly(), `role=link[name="Gin" s]`},
		{"has is not part of the anchor", browser.CSS(".product-item-details").Containing(browser.ExactText("Gin")), "css=.product-item-details"},
		{"zero", browser.Selector{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, engineSelector(tt.sel))
		})
	}
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected error
	}{
		{"playwright timeout", fmt.Errorf("locator.click: %w", playwright.ErrTimeout), browser.ErrTimeout},
		{"target closed", fmt.Errorf("page.goto: %w", playwright.ErrTargetClosed), browser.ErrSessionLost},
		{"closed by message", errors.New("Target page, context or browser has been closed"), browser.ErrSessionLost},
		{"disposed handle", errors.New("JSHandle is disposed"), browser.ErrStaleElement},
		{"not attached", errors.New("Element is not attached to the DOM"), browser.ErrStaleElement},
		{"intercepted", errors.New("<div class=\"modals-overlay\"></div> intercepts pointer events"), browser.ErrNotInteractable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, mapError(tt.err), tt.expected)
		})
	}
	assert.NoError(t, mapError(nil))
}

func TestInstallErrorKeepsCause(t *testing.T) {
	cause := errors.New("download chromium: connection reset")

	err := installError(cause)

	assert.ErrorIs(t, err, ErrInstallFailed)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestLoadState(t *testing.T) {
	assert.Equal(t, playwright.LoadStateDomcontentloaded, loadState(browser.SignalDOMContentLoaded))
	assert.Equal(t, playwright.LoadStateNetworkidle, loadState(browser.SignalNetworkIdle))
	assert.Equal(t, playwright.LoadStateLoad, loadState(browser.SignalLoad))
}

func TestMilliseconds(t *testing.T) {
	assert.Nil(t, milliseconds(0))
	ms := milliseconds(1500 * time.Millisecond)
	require.NotNil(t, ms)
	assert.Equal(t, 1500.0, *ms)

	assert.Nil(t, deadline(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	left := deadline(ctx)
	require.NotNil(t, left)
	assert.InDelta(t, 60000, *left, 1000)
}
