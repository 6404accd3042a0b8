package pwbrowser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"

	"shopflow/internal/browser"
)

// Element wraps a Playwright element handle. Interactions use the time left
// on ctx as their Playwright timeout.
type Element struct {
	handle   playwright.ElementHandle
	interval time.Duration
}

var _ browser.Element = (*Element)(nil)

func (e *Element) WaitForState(ctx context.Context, state browser.State, timeout time.Duration) (bool, error) {
	if !state.Valid() {
		return false, fmt.Errorf("unknown state %q", state)
	}
	return browser.Poll(ctx, timeout, e.interval, func() (bool, error) {
		connected, err := e.handle.Evaluate("el => el.isConnected")
		if err != nil {
			if err = mapError(err); errors.Is(err, browser.ErrStaleElement) {
				return state == browser.Detached || state == browser.Hidden, nil
			}
			return false, err
		}
		attached, _ := connected.(bool)
		switch state {
		case browser.Attached:
			return attached, nil
		case browser.Detached:
			return !attached, nil
		}
		visible := false
		if attached {
			if visible, err = e.handle.IsVisible(); err != nil {
				return false, mapError(err)
			}
		}
		return visible == (state == browser.Visible), nil
	})
}

func (e *Element) Click(ctx context.Context) error {
	return mapError(e.handle.Click(playwright.ElementHandleClickOptions{Timeout: deadline(ctx)}))
}

func (e *Element) Fill(ctx context.Context, text string) error {
	return mapError(e.handle.Fill(text, playwright.ElementHandleFillOptions{Timeout: deadline(ctx)}))
}

func (e *Element) TypeSequentially(ctx context.Context, text string, delay time.Duration) error {
	return mapError(e.handle.Type(text, playwright.ElementHandleTypeOptions{
		Delay:   milliseconds(delay),
		Timeout: deadline(ctx),
	}))
}

// SelectOption picks the option whose label is value.
func (e *Element) SelectOption(ctx context.Context, value string) error {
	_, err := e.handle.SelectOption(
		playwright.SelectOptionValues{Labels: &[]string{value}},
		playwright.ElementHandleSelectOptionOptions{Timeout: deadline(ctx)},
	)
	return mapError(err)
}

func (e *Element) TextContent(ctx context.Context) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	v, err := e.handle.Evaluate("el => el.textContent")
	if err != nil {
		return "", false, mapError(err)
	}
	text, ok := v.(string)
	return text, ok, nil
}

func (e *Element) Attribute(ctx context.Context, name string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	v, err := e.handle.Evaluate("(el, name) => el.getAttribute(name)", name)
	if err != nil {
		return "", false, mapError(err)
	}
	value, ok := v.(string)
	return value, ok, nil
}
