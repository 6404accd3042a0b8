package rodbrowser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"go.uber.org/zap"

	"shopflow/internal/browser"
)

// GotoAttempts bounds navigation retries on network and 5xx failures.
const GotoAttempts = 3

// gotoBackoff is the pause between navigation attempts.
var gotoBackoff = 2 * time.Second

// Session drives one rod page.
type Session struct {
	browser  *rod.Browser
	page     *rod.Page
	launcher *launcher.Launcher
	interval time.Duration
	logger   *zap.Logger
}

var (
	_ browser.Session       = (*Session)(nil)
	_ browser.Screenshotter = (*Session)(nil)
	_ browser.Closer        = (*Session)(nil)
)

func newSession(b *rod.Browser, page *rod.Page, l *launcher.Launcher, interval time.Duration, logger *zap.Logger) *Session {
	if interval <= 0 {
		interval = browser.DefaultPollInterval
	}
	return &Session{browser: b, page: page, launcher: l, interval: interval, logger: logger}
}

// Page exposes the underlying rod page.
func (s *Session) Page() *rod.Page {
	return s.page
}

func (s *Session) Find(ctx context.Context, sel browser.Selector) ([]browser.Element, error) {
	els, err := s.page.Context(ctx).ElementsByJS(rod.Eval(resolveJS, sel))
	if err != nil {
		return nil, mapError(err)
	}
	out := make([]browser.Element, 0, len(els))
	for _, el := range els {
		out = append(out, &Element{el: el, interval: s.interval})
	}
	return out, nil
}

func (s *Session) WaitForState(ctx context.Context, sel browser.Selector, state browser.State, timeout time.Duration) (bool, error) {
	if !state.Valid() {
		return false, fmt.Errorf("unknown state %q", state)
	}
	return browser.Poll(ctx, timeout, s.interval, func() (bool, error) {
		els, err := s.Find(ctx, sel)
		if err != nil {
			return false, err
		}
		switch state {
		case browser.Attached:
			return len(els) > 0, nil
		case browser.Detached:
			return len(els) == 0, nil
		}
		if len(els) == 0 {
			return state == browser.Hidden, nil
		}
		visible, err := els[0].(*Element).visible(ctx)
		if err != nil {
			if errors.Is(err, browser.ErrStaleElement) {
				return state == browser.Hidden, nil
			}
			return false, err
		}
		return visible == (state == browser.Visible), nil
	})
}

// Goto navigates to url and waits for the load event, retrying network
// errors and 5xx responses.
func (s *Session) Goto(ctx context.Context, url string, timeout time.Duration) error {
	return browser.RetryNavigation(ctx, url, GotoAttempts, gotoBackoff,
		func(ctx context.Context) (int, error) { return s.navigate(ctx, url, timeout) },
		func(attempt int, err error) {
			s.logger.Warn("navigation retry", zap.Int("attempt", attempt), zap.String("url", url), zap.Error(err))
		})
}

func (s *Session) navigate(ctx context.Context, url string, timeout time.Duration) (int, error) {
	page := s.page.Context(ctx)
	if timeout > 0 {
		page = page.Timeout(timeout)
	}
	if err := page.Navigate(url); err != nil {
		return 0, mapError(err)
	}
	if err := page.WaitLoad(); err != nil {
		return 0, mapError(err)
	}
	res, err := page.Eval(navigationStatusJS)
	if err != nil {
		return 200, nil
	}
	return res.Value.Int(), nil
}

func (s *Session) URL(ctx context.Context) (string, error) {
	info, err := s.page.Context(ctx).Info()
	if err != nil {
		return "", mapError(err)
	}
	return info.URL, nil
}

func (s *Session) WaitForURL(ctx context.Context, pattern string, timeout time.Duration) (bool, error) {
	return browser.Poll(ctx, timeout, s.interval, func() (bool, error) {
		current, err := s.URL(ctx)
		if err != nil {
			return false, err
		}
		return browser.MatchURL(pattern, current), nil
	})
}

// WaitForLoad polls document.readyState. rod has no page-level network idle
// milestone, so SignalNetworkIdle waits for the load event like SignalLoad.
func (s *Session) WaitForLoad(ctx context.Context, signal browser.Signal, timeout time.Duration) (bool, error) {
	return browser.Poll(ctx, timeout, s.interval, func() (bool, error) {
		res, err := s.page.Context(ctx).Eval(readyStateJS)
		if err != nil {
			return false, mapError(err)
		}
		return readyFor(signal, res.Value.Str()), nil
	})
}

func readyFor(signal browser.Signal, readyState string) bool {
	switch readyState {
	case "complete":
		return true
	case "interactive":
		return signal == browser.SignalDOMContentLoaded
	}
	return false
}

func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	data, err := s.page.Context(ctx).Screenshot(false, nil)
	if err != nil {
		return nil, mapError(err)
	}
	return data, nil
}

// IsAlive reports whether the browser process and the page still answer.
func (s *Session) IsAlive() bool {
	if s.browser == nil {
		return false
	}

	if _, err := s.browser.Version(); err != nil {
		s.logger.Debug("browser version check failed", zap.Error(err))
		return false
	}

	if s.page != nil {
		if _, err := s.page.Info(); err != nil {
			s.logger.Debug("page info check failed", zap.Error(err))
			return false
		}
	}

	return true
}

// Watch checks the browser every interval and closes the returned channel
// once it is gone, e.g. because the user closed the window.
func (s *Session) Watch(ctx context.Context, every time.Duration) <-chan struct{} {
	lost := make(chan struct{})
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !s.IsAlive() {
					close(lost)
					return
				}
			}
		}
	}()
	return lost
}

// Close shuts the page and the browser down and removes the launcher's
// temporary files.
func (s *Session) Close() error {
	var errs []error
	if s.page != nil {
		if err := s.page.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if s.launcher != nil {
		s.launcher.Cleanup()
	}
	return errors.Join(errs...)
}
