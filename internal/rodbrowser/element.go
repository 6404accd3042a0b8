package rodbrowser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"shopflow/internal/browser"
)

// Element wraps a rod element handle.
type Element struct {
	el       *rod.Element
	interval time.Duration
}

var _ browser.Element = (*Element)(nil)

func (e *Element) WaitForState(ctx context.Context, state browser.State, timeout time.Duration) (bool, error) {
	if !state.Valid() {
		return false, fmt.Errorf("unknown state %q", state)
	}
	return browser.Poll(ctx, timeout, e.interval, func() (bool, error) {
		connected, err := e.connected(ctx)
		if err != nil {
			if errors.Is(err, browser.ErrStaleElement) {
				return state == browser.Detached || state == browser.Hidden, nil
			}
			return false, err
		}
		switch state {
		case browser.Attached:
			return connected, nil
		case browser.Detached:
			return !connected, nil
		}
		visible := false
		if connected {
			if visible, err = e.visible(ctx); err != nil {
				return false, err
			}
		}
		return visible == (state == browser.Visible), nil
	})
}

func (e *Element) connected(ctx context.Context) (bool, error) {
	res, err := e.el.Context(ctx).Eval(`() => this.isConnected`)
	if err != nil {
		return false, mapError(err)
	}
	return res.Value.Bool(), nil
}

func (e *Element) visible(ctx context.Context) (bool, error) {
	res, err := e.el.Context(ctx).Eval(visibleJS)
	if err != nil {
		return false, mapError(err)
	}
	return res.Value.Bool(), nil
}

func (e *Element) Click(ctx context.Context) error {
	return mapError(e.el.Context(ctx).Click(proto.InputMouseButtonLeft, 1))
}

// Fill replaces the current value with text.
func (e *Element) Fill(ctx context.Context, text string) error {
	el := e.el.Context(ctx)
	_, err := el.Eval(`() => {
		this.value = '';
		this.dispatchEvent(new Event('input', { bubbles: true }));
	}`)
	if err != nil {
		return mapError(err)
	}
	if text == "" {
		return nil
	}
	return mapError(el.Input(text))
}

// TypeSequentially inserts text one character at a time.
func (e *Element) TypeSequentially(ctx context.Context, text string, delay time.Duration) error {
	el := e.el.Context(ctx)
	for i, r := range []rune(text) {
		if i > 0 && delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
		if err := el.Input(string(r)); err != nil {
			return mapError(err)
		}
	}
	return nil
}

func (e *Element) SelectOption(ctx context.Context, value string) error {
	return mapError(e.el.Context(ctx).Select([]string{value}, true, rod.SelectorTypeText))
}

func (e *Element) TextContent(ctx context.Context) (string, bool, error) {
	res, err := e.el.Context(ctx).Eval(`() => this.textContent`)
	if err != nil {
		return "", false, mapError(err)
	}
	if res.Value.Nil() {
		return "", false, nil
	}
	return res.Value.Str(), true, nil
}

func (e *Element) Attribute(ctx context.Context, name string) (string, bool, error) {
	v, err := e.el.Context(ctx).Attribute(name)
	if err != nil {
		return "", false, mapError(err)
	}
	if v == nil {
		return "", false, nil
	}
	return *v, true, nil
}

// mapError turns rod's typed errors into browser sentinels and classifies
// the rest by message.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var (
		covered        *rod.CoveredError
		notInteract    *rod.NotInteractableError
		invisibleShape *rod.InvisibleShapeError
		objNotFound    *rod.ObjectNotFoundError
	)
	switch {
	case errors.As(err, &covered), errors.As(err, &notInteract), errors.As(err, &invisibleShape):
		return fmt.Errorf("%w: %v", browser.ErrNotInteractable, err)
	case errors.As(err, &objNotFound):
		return fmt.Errorf("%w: %v", browser.ErrStaleElement, err)
	}
	return browser.Classify(err)
}
