// Package browser defines the automation boundary the workflow engine drives.
//
// Bindings (rodbrowser, pwbrowser) implement Session and Element on top of a
// concrete browser library. Everything above this package talks only to these
// interfaces, so a workflow can be retargeted to another binding without change.
package browser

import (
	"context"
	"fmt"
	"time"
)

// State is an element state a caller can wait for.
type State string

const (
	Visible  State = "visible"
	Hidden   State = "hidden"
	Attached State = "attached"
	Detached State = "detached"
)

func (s State) Valid() bool {
	switch s {
	case Visible, Hidden, Attached, Detached:
		return true
	}
	return false
}

// Signal is a page load milestone.
type Signal string

const (
	SignalLoad             Signal = "load"
	SignalDOMContentLoaded Signal = "domcontentloaded"
	SignalNetworkIdle      Signal = "networkidle"
)

// Session is one browser page owned by a single workflow at a time.
//
// Wait methods report (false, nil) when the condition does not hold before the
// timeout expires. A zero timeout checks the condition once. Errors are
// reserved for infrastructural failures and classified transient failures
// (see ErrStaleElement).
type Session interface {
	Find(ctx context.Context, sel Selector) ([]Element, error)
	WaitForState(ctx context.Context, sel Selector, state State, timeout time.Duration) (bool, error)

	Goto(ctx context.Context, url string, timeout time.Duration) error
	URL(ctx context.Context) (string, error)
	WaitForURL(ctx context.Context, pattern string, timeout time.Duration) (bool, error)
	WaitForLoad(ctx context.Context, signal Signal, timeout time.Duration) (bool, error)
}

// Element is a handle to one resolved node. Handles are not re-resolved: once
// the node leaves the document the handle reports Detached and interactions
// fail with ErrStaleElement.
type Element interface {
	WaitForState(ctx context.Context, state State, timeout time.Duration) (bool, error)

	Click(ctx context.Context) error
	Fill(ctx context.Context, text string) error
	TypeSequentially(ctx context.Context, text string, delay time.Duration) error
	SelectOption(ctx context.Context, value string) error

	// TextContent returns the element text; present is false when the node
	// has no text content at all.
	TextContent(ctx context.Context) (text string, present bool, err error)
	// Attribute returns the attribute value; present is false when the
	// attribute is not set.
	Attribute(ctx context.Context, name string) (value string, present bool, err error)
}

// Screenshotter is implemented by sessions that can capture the viewport.
type Screenshotter interface {
	Screenshot(ctx context.Context) ([]byte, error)
}

// Closer releases the browser resources behind a session.
type Closer interface {
	Close() error
}

// First resolves sel and returns its first match, or ErrNotFound.
func First(ctx context.Context, s Session, sel Selector) (Element, error) {
	els, err := s.Find(ctx, sel)
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return nil, fmt.Errorf("%s: %w", sel, ErrNotFound)
	}
	return els[0], nil
}
