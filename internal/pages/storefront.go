package pages

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"shopflow/internal/browser"
	"shopflow/internal/config"
	"shopflow/internal/workflow"
)

// LoginTypeDelay is the per-character delay used on the sign-in form.
const LoginTypeDelay = 100 * time.Millisecond

// ErrSignInRejected is returned when the storefront shows its sign-in error.
var ErrSignInRejected = errors.New("sign in rejected")

// Storefront groups the page actions that surround the workflows: entering the
// site, signing in and checking what ended up in the cart.
type Storefront struct {
	BaseURL string
	// Text is the storefront copy used to recognise messages.
	Text config.AppConstants

	session  browser.Session
	settings workflow.Settings
	probe    *workflow.Probe
	exec     *workflow.Executor
	logger   *zap.Logger
}

func New(session browser.Session, baseURL string, text config.AppConstants, settings workflow.Settings, logger *zap.Logger) *Storefront {
	logger = logger.Named("pages")
	return &Storefront{
		BaseURL:  baseURL,
		Text:     text,
		session:  session,
		settings: settings,
		probe:    workflow.NewProbe(session, settings, logger),
		exec:     workflow.NewExecutor(session, settings, logger),
		logger:   logger,
	}
}

// Open navigates to the storefront home page.
func (s *Storefront) Open(ctx context.Context) error {
	if err := s.session.Goto(ctx, s.BaseURL, s.settings.LoadTimeout); err != nil {
		return fmt.Errorf("open %s: %w", s.BaseURL, err)
	}
	return nil
}

// AcceptTerms opens the site and confirms the age gate. It reports false when
// the gate was not shown, which happens once a profile has accepted it before.
func (s *Storefront) AcceptTerms(ctx context.Context) (bool, error) {
	if err := s.Open(ctx); err != nil {
		return false, err
	}
	shown, err := s.probe.Await(ctx, AcceptTerms, browser.Visible, s.settings.LoadTimeout)
	if err != nil || !shown {
		return false, err
	}
	if err := s.exec.Require(ctx, AcceptTerms, workflow.Click()); err != nil {
		return false, fmt.Errorf("accept terms: %w", err)
	}
	s.logger.Info("age gate accepted")
	return true, nil
}

// SignIn logs in from the header link and waits for the sign-out link.
func (s *Storefront) SignIn(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return errors.New("sign in: username and password are required")
	}
	if _, err := s.probe.Await(ctx, SignInLink, browser.Visible, s.settings.PanelTimeout); err != nil {
		return err
	}
	steps := []struct {
		sel    browser.Selector
		action workflow.Action
	}{
		{SignInLink, workflow.Click()},
		{EmailBox, workflow.TypeSequentially(username, LoginTypeDelay)},
		{PasswordBox, workflow.TypeSequentially(password, LoginTypeDelay)},
		{SignInButton, workflow.Click()},
	}
	for _, step := range steps {
		if err := s.exec.Require(ctx, step.sel, step.action); err != nil {
			return fmt.Errorf("sign in: %w", err)
		}
	}

	idx, err := s.probe.AwaitAny(ctx, s.settings.LoadTimeout,
		workflow.Condition{Selector: SignOutLink, State: browser.Attached},
		workflow.Condition{Selector: LoginError(s.Text), State: browser.Visible},
	)
	if err != nil {
		return err
	}
	switch idx {
	case 0:
		s.logger.Info("signed in", zap.String("user", username))
		return nil
	case 1:
		return fmt.Errorf("%w for %s", ErrSignInRejected, username)
	}
	return fmt.Errorf("sign in: no confirmation within %s", s.settings.LoadTimeout)
}

// SignedIn reports whether the header offers the sign-out link.
func (s *Storefront) SignedIn(ctx context.Context) (bool, error) {
	return s.probe.Check(ctx, SignOutLink, browser.Attached)
}

// SignOut logs out through the account menu and waits for the sign-in link.
func (s *Storefront) SignOut(ctx context.Context) error {
	shown, err := s.probe.Check(ctx, SignOutLink, browser.Visible)
	if err != nil {
		return err
	}
	if !shown {
		if err := s.exec.Require(ctx, AccountMenu, workflow.Click()); err != nil {
			return fmt.Errorf("open account menu: %w", err)
		}
	}
	if err := s.exec.Require(ctx, SignOutLink, workflow.Click()); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	out, err := s.probe.Await(ctx, SignInLink, browser.Attached, s.settings.LoadTimeout)
	if err != nil {
		return err
	}
	if !out {
		return fmt.Errorf("sign out: no sign-in link within %s", s.settings.LoadTimeout)
	}
	s.logger.Info("signed out")
	return nil
}

// ShowsNoResults reports whether the search page shows the no-results
// message.
func (s *Storefront) ShowsNoResults(ctx context.Context) (bool, error) {
	return s.probe.Await(ctx, NoSearchResults(s.Text), browser.Visible, s.settings.ListingTimeout)
}

// CartCount reads the mini cart counter. An empty counter reads as zero.
func (s *Storefront) CartCount(ctx context.Context) (int, error) {
	shown, err := s.probe.Await(ctx, MiniCartCounter, browser.Attached, s.settings.CounterTimeout)
	if err != nil {
		return 0, err
	}
	if !shown {
		return 0, nil
	}
	el, err := browser.First(ctx, s.session, MiniCartCounter)
	if err != nil {
		return 0, err
	}
	text, _, err := el.TextContent(ctx)
	if err != nil {
		return 0, err
	}
	return parseCount(text)
}

func parseCount(text string) (int, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		return 0, fmt.Errorf("cart counter %q: %w", text, err)
	}
	return n, nil
}

// OpenCartFromNotification follows the shopping cart link in the add-to-cart
// notification.
func (s *Storefront) OpenCartFromNotification(ctx context.Context) error {
	shown, err := s.probe.Await(ctx, CartNotification, browser.Attached, s.settings.DefaultTimeout)
	if err != nil {
		return err
	}
	if !shown {
		return fmt.Errorf("%s: %w", CartNotification, browser.ErrNotFound)
	}
	if err := s.exec.Require(ctx, CartNotification, workflow.Click()); err != nil {
		return fmt.Errorf("open cart: %w", err)
	}
	_, err = s.probe.Loaded(ctx, browser.SignalDOMContentLoaded, s.settings.LoadTimeout)
	return err
}

// OpenCart navigates straight to the shopping cart page.
func (s *Storefront) OpenCart(ctx context.Context) error {
	url := browser.ResolveURL(s.BaseURL, CartPath)
	if err := s.session.Goto(ctx, url, s.settings.LoadTimeout); err != nil {
		return fmt.Errorf("open cart: %w", err)
	}
	return nil
}

// CartHasProduct reports whether the shopping cart page lists product.
func (s *Storefront) CartHasProduct(ctx context.Context, product string) (bool, error) {
	return s.probe.Await(ctx, ItemSelector(CartPageProduct, product), browser.Visible, s.settings.PanelTimeout)
}
