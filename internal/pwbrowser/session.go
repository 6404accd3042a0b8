// Package pwbrowser implements the browser boundary on top of playwright-go.
package pwbrowser

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"shopflow/internal/browser"
	"shopflow/internal/locale"
)

// GotoAttempts bounds navigation retries on network and 5xx failures.
const GotoAttempts = 3

var gotoBackoff = 2 * time.Second

// ErrInstallFailed reports that the driver or Chromium could not be downloaded.
var ErrInstallFailed = errors.New("playwright install failed")

type Options struct {
	Headless bool
	// ProfilePath, when set, launches a persistent context so cookies and
	// the age gate survive between runs.
	ProfilePath    string
	ViewportWidth  int
	ViewportHeight int
	// Install downloads the driver and Chromium before launching.
	Install      bool
	PollInterval time.Duration
	Logger       *zap.Logger
}

// Session drives one Playwright page.
type Session struct {
	pw       *playwright.Playwright
	browser  playwright.Browser
	context  playwright.BrowserContext
	page     playwright.Page
	interval time.Duration
	logger   *zap.Logger
}

var (
	_ browser.Session       = (*Session)(nil)
	_ browser.Screenshotter = (*Session)(nil)
	_ browser.Closer        = (*Session)(nil)
)

// Launch starts the Playwright driver and opens Chromium with one page.
func Launch(opts Options) (*Session, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("playwright")

	fmt.Println(locale.T("browser_launching", "playwright"))

	if opts.Install {
		if err := playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}}); err != nil {
			err = installError(err)
			fmt.Println(locale.T("error_browser_setup_failed", err))
			return nil, err
		}
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	s := &Session{pw: pw, interval: opts.PollInterval, logger: logger}
	if s.interval <= 0 {
		s.interval = browser.DefaultPollInterval
	}
	var viewport *playwright.Size
	if opts.ViewportWidth > 0 && opts.ViewportHeight > 0 {
		viewport = &playwright.Size{Width: opts.ViewportWidth, Height: opts.ViewportHeight}
	}

	if opts.ProfilePath != "" {
		logger.Debug(locale.T("browser_profile_path_set", opts.ProfilePath))
		s.context, err = pw.Chromium.LaunchPersistentContext(opts.ProfilePath, playwright.BrowserTypeLaunchPersistentContextOptions{
			Headless: playwright.Bool(opts.Headless),
			Viewport: viewport,
		})
	} else {
		s.browser, err = pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
			Headless: playwright.Bool(opts.Headless),
		})
		if err == nil {
			s.context, err = s.browser.NewContext(playwright.BrowserNewContextOptions{Viewport: viewport})
		}
	}
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to launch chromium: %w", err)
	}

	if pages := s.context.Pages(); len(pages) > 0 {
		s.page = pages[0]
	} else if s.page, err = s.context.NewPage(); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	fmt.Println(locale.T("browser_launched"))
	return s, nil
}

// installError keeps the driver's error in the chain.
func installError(err error) error {
	return fmt.Errorf("%w: %w", ErrInstallFailed, err)
}

// Page exposes the underlying Playwright page.
func (s *Session) Page() playwright.Page {
	return s.page
}

// engineSelector renders the anchor of sel in Playwright's selector engine
// syntax. Unquoted text and plain role names match case-insensitive
// substrings; exact selectors use quoted text and the "s" name flag.
func engineSelector(sel browser.Selector) string {
	switch {
	case sel.CSS != "":
		return "css=" + sel.CSS
	case sel.Role != "":
		if sel.Name == "" {
			return "role=" + sel.Role
		}
		if sel.Exact {
			return "role=" + sel.Role + "[name=" + strconv.Quote(sel.Name) + " s]"
		}
		return "role=" + sel.Role + "[name=" + strconv.Quote(sel.Name) + "]"
	case sel.Text != "":
		if sel.Exact {
			return "text=" + strconv.Quote(sel.Text)
		}
		return "text=" + sel.Text
	}
	return ""
}

func (s *Session) locator(sel browser.Selector) playwright.Locator {
	var loc playwright.Locator
	if sel.Scope != nil {
		loc = s.locator(*sel.Scope).Locator(engineSelector(sel))
	} else {
		loc = s.page.Locator(engineSelector(sel))
	}
	if sel.HasText != "" {
		loc = loc.Filter(playwright.LocatorFilterOptions{HasText: sel.HasText})
	}
	if sel.Has != nil {
		loc = loc.Filter(playwright.LocatorFilterOptions{Has: s.locator(*sel.Has)})
	}
	if sel.Only {
		loc = loc.First()
	}
	return loc
}

func (s *Session) Find(ctx context.Context, sel browser.Selector) ([]browser.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if sel.IsZero() {
		return nil, nil
	}
	handles, err := s.locator(sel).ElementHandles()
	if err != nil {
		return nil, mapError(err)
	}
	out := make([]browser.Element, 0, len(handles))
	for _, h := range handles {
		out = append(out, &Element{handle: h, interval: s.interval})
	}
	return out, nil
}

func (s *Session) WaitForState(ctx context.Context, sel browser.Selector, state browser.State, timeout time.Duration) (bool, error) {
	if !state.Valid() {
		return false, fmt.Errorf("unknown state %q", state)
	}
	if sel.IsZero() {
		return state == browser.Detached || state == browser.Hidden, nil
	}
	loc := s.locator(sel)
	return browser.Poll(ctx, timeout, s.interval, func() (bool, error) {
		switch state {
		case browser.Attached, browser.Detached:
			n, err := loc.Count()
			if err != nil {
				return false, mapError(err)
			}
			return (n > 0) == (state == browser.Attached), nil
		}
		visible, err := loc.First().IsVisible()
		if err != nil {
			return false, mapError(err)
		}
		return visible == (state == browser.Visible), nil
	})
}

// Goto navigates to url and waits for the load event, retrying network
// errors and 5xx responses.
func (s *Session) Goto(ctx context.Context, url string, timeout time.Duration) error {
	return browser.RetryNavigation(ctx, url, GotoAttempts, gotoBackoff,
		func(ctx context.Context) (int, error) {
			resp, err := s.page.Goto(url, playwright.PageGotoOptions{
				WaitUntil: playwright.WaitUntilStateLoad,
				Timeout:   milliseconds(timeout),
			})
			if err != nil {
				return 0, mapError(err)
			}
			if resp == nil {
				return 0, nil
			}
			return resp.Status(), nil
		},
		func(attempt int, err error) {
			s.logger.Warn("navigation retry", zap.Int("attempt", attempt), zap.String("url", url), zap.Error(err))
		})
}

func (s *Session) URL(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.page.IsClosed() {
		return "", browser.ErrSessionLost
	}
	return s.page.URL(), nil
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

func (s *Session) WaitForLoad(ctx context.Context, signal browser.Signal, timeout time.Duration) (bool, error) {
	if timeout <= 0 {
		// Playwright treats a zero timeout as unbounded.
		timeout = time.Millisecond
	}
	state := loadState(signal)
	err := s.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   state,
		Timeout: milliseconds(timeout),
	})
	if err != nil {
		if err = mapError(err); errors.Is(err, browser.ErrTimeout) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func loadState(signal browser.Signal) *playwright.LoadState {
	switch signal {
	case browser.SignalDOMContentLoaded:
		return playwright.LoadStateDomcontentloaded
	case browser.SignalNetworkIdle:
		return playwright.LoadStateNetworkidle
	}
	return playwright.LoadStateLoad
}

func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := s.page.Screenshot()
	if err != nil {
		return nil, mapError(err)
	}
	return data, nil
}

// Close closes the page, the context and the browser, then stops the driver.
func (s *Session) Close() error {
	var errs []error
	if s.page != nil {
		if err := s.page.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.context != nil {
		if err := s.context.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.pw != nil {
		if err := s.pw.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// milliseconds converts d into Playwright's float timeout.
func milliseconds(d time.Duration) *float64 {
	if d <= 0 {
		return nil
	}
	return playwright.Float(float64(d) / float64(time.Millisecond))
}

// deadline returns the time left on ctx as a Playwright timeout, or nil to
// use Playwright's default.
func deadline(ctx context.Context) *float64 {
	if dl, ok := ctx.Deadline(); ok {
		left := time.Until(dl)
		if left < time.Millisecond {
			left = time.Millisecond
		}
		return milliseconds(left)
	}
	return nil
}

// mapError turns Playwright's error values into browser sentinels.
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, playwright.ErrTimeout):
		return fmt.Errorf("%w: %v", browser.ErrTimeout, err)
	case errors.Is(err, playwright.ErrTargetClosed):
		return fmt.Errorf("%w: %v", browser.ErrSessionLost, err)
	}
	return browser.Classify(err)
}
