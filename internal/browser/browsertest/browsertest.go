// Package browsertest provides a scripted in-memory browser.Session.
//
// Tests register resolvers keyed by a selector's canonical string. A resolver
// runs on every lookup, so the returned elements always reflect the scripted
// page state at that moment, the same way a live DOM query would.
package browsertest

import (
	"context"
	"fmt"
	"time"

	"shopflow/internal/browser"
)

// pollStep is how often waits re-evaluate scripted state.
const pollStep = time.Millisecond

// Session is a fake browser.Session. It is not safe for concurrent use.
type Session struct {
	CurrentURL string
	// Gotos records every Goto target in order.
	Gotos []string
	// OnGoto runs after CurrentURL is updated by Goto.
	OnGoto func(url string)

	// Closed is set by Close.
	Closed bool

	resolvers map[string]func() []*Element
	lookups   map[string]int
	lost      bool
}

var (
	_ browser.Session       = (*Session)(nil)
	_ browser.Screenshotter = (*Session)(nil)
	_ browser.Closer        = (*Session)(nil)
)

func NewSession() *Session {
	return &Session{
		resolvers: make(map[string]func() []*Element),
		lookups:   make(map[string]int),
	}
}

// Handle registers the resolver for sel.
func (s *Session) Handle(sel browser.Selector, fn func() []*Element) {
	s.resolvers[sel.String()] = fn
}

// HandleStatic registers a fixed element list for sel.
func (s *Session) HandleStatic(sel browser.Selector, els ...*Element) {
	s.Handle(sel, func() []*Element { return els })
}

// Lose makes every later call fail with browser.ErrSessionLost.
func (s *Session) Lose() {
	s.lost = true
}

// Lookups reports how often sel was resolved by Find or WaitForState.
func (s *Session) Lookups(sel browser.Selector) int {
	return s.lookups[sel.String()]
}

func (s *Session) check(ctx context.Context) error {
	if s.lost {
		return browser.ErrSessionLost
	}
	return ctx.Err()
}

func (s *Session) resolve(sel browser.Selector) []*Element {
	key := sel.String()
	s.lookups[key]++
	fn, ok := s.resolvers[key]
	if !ok {
		return nil
	}
	var out []*Element
	for _, el := range fn() {
		if el == nil || el.Removed {
			continue
		}
		el.session = s
		out = append(out, el)
	}
	return out
}

func (s *Session) Find(ctx context.Context, sel browser.Selector) ([]browser.Element, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	els := s.resolve(sel)
	out := make([]browser.Element, 0, len(els))
	for _, el := range els {
		out = append(out, el)
	}
	return out, nil
}

func (s *Session) WaitForState(ctx context.Context, sel browser.Selector, state browser.State, timeout time.Duration) (bool, error) {
	if !state.Valid() {
		return false, fmt.Errorf("unknown state %q", state)
	}
	return s.poll(ctx, timeout, func() bool {
		els := s.resolve(sel)
		switch state {
		case browser.Attached:
			return len(els) > 0
		case browser.Detached:
			return len(els) == 0
		case browser.Visible:
			return len(els) > 0 && !els[0].Hidden
		default:
			return len(els) == 0 || els[0].Hidden
		}
	})
}

func (s *Session) Goto(ctx context.Context, url string, timeout time.Duration) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	s.Gotos = append(s.Gotos, url)
	s.CurrentURL = url
	if s.OnGoto != nil {
		s.OnGoto(url)
	}
	return nil
}

func (s *Session) URL(ctx context.Context) (string, error) {
	if err := s.check(ctx); err != nil {
		return "", err
	}
	return s.CurrentURL, nil
}

func (s *Session) WaitForURL(ctx context.Context, pattern string, timeout time.Duration) (bool, error) {
	return s.poll(ctx, timeout, func() bool {
		return browser.MatchURL(pattern, s.CurrentURL)
	})
}

func (s *Session) WaitForLoad(ctx context.Context, signal browser.Signal, timeout time.Duration) (bool, error) {
	if err := s.check(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	return []byte("png"), nil
}

func (s *Session) Close() error {
	s.Closed = true
	return nil
}

func (s *Session) poll(ctx context.Context, timeout time.Duration, cond func() bool) (bool, error) {
	deadline := time.Now().Add(timeout)
	for {
		if err := s.check(ctx); err != nil {
			return false, err
		}
		if cond() {
			return true, nil
		}
		if !time.Now().Before(deadline) {
			return false, nil
		}
		time.Sleep(pollStep)
	}
}
