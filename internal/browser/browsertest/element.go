package browsertest

import (
	"context"
	"fmt"
	"time"

	"shopflow/internal/browser"
)

// Element is a fake browser.Element. Mutate its fields from resolver or
// OnClick hooks to script page behaviour.
type Element struct {
	Text    string
	NoText  bool
	Attrs   map[string]string
	Hidden  bool
	Removed bool

	// OnClick runs after a successful click is recorded.
	OnClick func(el *Element)
	// BeforeClick runs on every click attempt, before ClickErr is checked.
	BeforeClick func(el *Element)
	// ClickErr, when set, is returned by Click instead of clicking.
	ClickErr error

	Clicks   int
	Filled   string
	Typed    string
	Selected string

	session *Session
}

var _ browser.Element = (*Element)(nil)

// NewElement returns a visible element with the given text.
func NewElement(text string) *Element {
	return &Element{Text: text}
}

// WithAttr sets an attribute and returns the element.
func (e *Element) WithAttr(name, value string) *Element {
	if e.Attrs == nil {
		e.Attrs = make(map[string]string)
	}
	e.Attrs[name] = value
	return e
}

// Remove detaches the element from the scripted document.
func (e *Element) Remove() {
	e.Removed = true
}

func (e *Element) check(ctx context.Context) error {
	if e.session != nil && e.session.lost {
		return browser.ErrSessionLost
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.Removed {
		return fmt.Errorf("fake element %q: %w", e.Text, browser.ErrStaleElement)
	}
	return nil
}

func (e *Element) WaitForState(ctx context.Context, state browser.State, timeout time.Duration) (bool, error) {
	if !state.Valid() {
		return false, fmt.Errorf("unknown state %q", state)
	}
	deadline := time.Now().Add(timeout)
	for {
		if e.session != nil && e.session.lost {
			return false, browser.ErrSessionLost
		}
		if err := ctx.Err(); err != nil {
			return false, err
		}
		if e.in(state) {
			return true, nil
		}
		if !time.Now().Before(deadline) {
			return false, nil
		}
		time.Sleep(pollStep)
	}
}

func (e *Element) in(state browser.State) bool {
	switch state {
	case browser.Visible:
		return !e.Removed && !e.Hidden
	case browser.Hidden:
		return e.Removed || e.Hidden
	case browser.Attached:
		return !e.Removed
	default:
		return e.Removed
	}
}

func (e *Element) Click(ctx context.Context) error {
	if err := e.check(ctx); err != nil {
		return err
	}
	if e.BeforeClick != nil {
		e.BeforeClick(e)
	}
	if e.ClickErr != nil {
		return e.ClickErr
	}
	e.Clicks++
	if e.OnClick != nil {
		e.OnClick(e)
	}
	return nil
}

func (e *Element) Fill(ctx context.Context, text string) error {
	if err := e.check(ctx); err != nil {
		return err
	}
	e.Filled = text
	return nil
}

func (e *Element) TypeSequentially(ctx context.Context, text string, delay time.Duration) error {
	if err := e.check(ctx); err != nil {
		return err
	}
	e.Typed += text
	return nil
}

func (e *Element) SelectOption(ctx context.Context, value string) error {
	if err := e.check(ctx); err != nil {
		return err
	}
	e.Selected = value
	return nil
}

func (e *Element) TextContent(ctx context.Context) (string, bool, error) {
	if err := e.check(ctx); err != nil {
		return "", false, err
	}
	if e.NoText {
		return "", false, nil
	}
	return e.Text, true, nil
}

func (e *Element) Attribute(ctx context.Context, name string) (string, bool, error) {
	if err := e.check(ctx); err != nil {
		return "", false, err
	}
	v, ok := e.Attrs[name]
	return v, ok, nil
}
