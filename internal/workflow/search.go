package workflow

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"shopflow/internal/browser"
)

// ListingView names the product listing elements the search loop touches.
type ListingView struct {
	// Items matches the name link of every product on the page.
	Items    browser.Selector
	NextPage browser.Selector
	// ActionFor returns the control to activate on the named product.
	ActionFor func(name string) browser.Selector
	// Pending and Done are the optional status labels shown after the
	// action, in that order. Zero selectors are skipped.
	Pending browser.Selector
	Done    browser.Selector
}

// ResultPage is one page of a product listing as read on a single scan.
type ResultPage struct {
	URL     string
	Items   []string
	HasNext bool
}

// Contains reports whether name is on the page, compared exactly.
func (p ResultPage) Contains(name string) bool {
	for _, it := range p.Items {
		if it == name {
			return true
		}
	}
	return false
}

// key identifies a page even when pagination does not change the URL.
func (p ResultPage) key() string {
	if len(p.Items) == 0 {
		return p.URL
	}
	return p.URL + "\x00" + p.Items[0]
}

// Searcher walks a paginated listing looking for one product.
type Searcher struct {
	session  browser.Session
	view     ListingView
	settings Settings
	probe    *Probe
	exec     *Executor
	logger   *zap.Logger
}

func NewSearcher(session browser.Session, view ListingView, settings Settings, logger *zap.Logger) *Searcher {
	return &Searcher{
		session:  session,
		view:     view,
		settings: settings,
		probe:    NewProbe(session, settings, logger),
		exec:     NewExecutor(session, settings, logger),
		logger:   logger.Named("search"),
	}
}

// ReadPage reads the product names on the current page and whether an
// enabled next-page control is shown.
func (s *Searcher) ReadPage(ctx context.Context) (ResultPage, error) {
	var page ResultPage
	url, err := s.session.URL(ctx)
	if err != nil {
		return page, err
	}
	page.URL = url

	var names []string
	if _, err := s.probe.Until(ctx, s.settings.ScanTimeout, func(ctx context.Context) (bool, error) {
		els, err := s.session.Find(ctx, s.view.Items)
		if err != nil || len(els) == 0 {
			return false, err
		}
		names = names[:0]
		for _, el := range els {
			text, present, err := el.TextContent(ctx)
			if err != nil {
				return false, err
			}
			if present {
				names = append(names, strings.TrimSpace(text))
			}
		}
		return true, nil
	}); err != nil {
		return page, err
	}
	page.Items = names

	visible, err := s.probe.Await(ctx, s.view.NextPage, browser.Visible, s.settings.NextPageTimeout)
	if err != nil || !visible {
		return page, err
	}
	el, err := browser.First(ctx, s.session, s.view.NextPage)
	if err != nil {
		_, err = s.probe.absorb(ctx, false, err, s.view.NextPage.String())
		return page, err
	}
	enabled, err := isEnabled(ctx, el)
	if err != nil {
		_, err = s.probe.absorb(ctx, false, err, s.view.NextPage.String())
		return page, err
	}
	page.HasNext = enabled
	return page, nil
}

func isEnabled(ctx context.Context, el browser.Element) (bool, error) {
	if _, present, err := el.Attribute(ctx, "disabled"); err != nil || present {
		return false, err
	}
	aria, _, err := el.Attribute(ctx, "aria-disabled")
	if err != nil {
		return false, err
	}
	if strings.EqualFold(aria, "true") {
		return false, nil
	}
	class, _, err := el.Attribute(ctx, "class")
	if err != nil {
		return false, err
	}
	for _, c := range strings.Fields(class) {
		if c == "disabled" {
			return false, nil
		}
	}
	return true, nil
}

// FindAndAct scans pages starting from the current one until target is
// listed, then activates its action control. A target missing from every
// page yields a NotFound outcome. A next-page control without a navigation
// target, a transition that is never observed, or pagination returning to a
// page already scanned are returned as errors.
func (s *Searcher) FindAndAct(ctx context.Context, target string) (Outcome, error) {
	out := Outcome{Workflow: "find-and-add", Target: target}
	scanned := make(map[string]bool)
	visited := make(map[string]bool)

	for {
		page, err := s.ReadPage(ctx)
		if err != nil {
			return out, err
		}
		out.Pages++
		key := page.key()
		if scanned[key] {
			return out, fmt.Errorf("%s: %w", page.URL, ErrPaginationCycle)
		}
		scanned[key] = true
		visited[page.URL] = true
		log := s.logger.With(zap.Int("page", out.Pages), zap.String("url", page.URL))
		log.Debug("page scanned", zap.Strings("items", page.Items), zap.Bool("has_next", page.HasNext))

		if page.Contains(target) {
			obs, err := s.act(ctx, log, target)
			if err != nil {
				return out, err
			}
			out.Kind = Success
			out.Confirmation = obs
			log.Info("product found", zap.String("product", target))
			return out, nil
		}
		if !page.HasNext {
			out.Kind = NotFound
			log.Info("product not listed on any page", zap.String("product", target))
			return out, nil
		}
		if err := s.next(ctx, page, visited); err != nil {
			return out, err
		}
		out.Transitions++
	}
}

func (s *Searcher) next(ctx context.Context, page ResultPage, visited map[string]bool) error {
	el, err := browser.First(ctx, s.session, s.view.NextPage)
	if err != nil {
		return fmt.Errorf("next page: %w", err)
	}
	href, present, err := el.Attribute(ctx, "href")
	if err != nil {
		return fmt.Errorf("next page target: %w", err)
	}
	href = strings.TrimSpace(href)
	if !present || href == "" || href == "#" {
		return fmt.Errorf("%s: %w", s.view.NextPage, ErrNoNavigationTarget)
	}
	dest := browser.ResolveURL(page.URL, href)
	if visited[dest] {
		return fmt.Errorf("%s: %w", dest, ErrPaginationCycle)
	}

	res, err := s.exec.PerformOn(ctx, el, Click())
	if err != nil {
		return err
	}
	if !res.OK {
		return fmt.Errorf("next page: %w: %v", ErrActionFailed, res.Err)
	}

	var first string
	if len(page.Items) > 0 {
		first = page.Items[0]
	}
	moved, err := s.probe.Until(ctx, s.settings.TransitionTimeout, func(ctx context.Context) (bool, error) {
		url, err := s.session.URL(ctx)
		if err != nil {
			return false, err
		}
		if browser.MatchURL(dest, url) {
			return true, nil
		}
		if first == "" {
			return false, nil
		}
		head, err := browser.First(ctx, s.session, s.view.Items)
		if err != nil {
			return false, err
		}
		text, _, err := head.TextContent(ctx)
		if err != nil {
			return false, err
		}
		return strings.TrimSpace(text) != first, nil
	})
	if err != nil {
		return err
	}
	if !moved {
		return fmt.Errorf("waiting for %s: %w", dest, ErrPageTransition)
	}
	if _, err := s.probe.Loaded(ctx, browser.SignalDOMContentLoaded, s.settings.LoadTimeout); err != nil {
		return err
	}
	s.logger.Debug("moved to next page", zap.String("url", dest))
	return nil
}

func (s *Searcher) act(ctx context.Context, log *zap.Logger, target string) (Observation, error) {
	sel := s.view.ActionFor(target)
	attempts := s.settings.ActionAttempts
	if attempts < 1 {
		attempts = 1
	}
	var last error
	for i := 1; i <= attempts; i++ {
		res, err := s.exec.Perform(ctx, sel, Click())
		if err != nil {
			return Observation{}, err
		}
		if res.OK {
			return s.status(ctx)
		}
		last = res.Err
		log.Warn("product action failed", zap.Int("attempt", i), zap.Error(res.Err))
	}
	return Observation{}, fmt.Errorf("%q after %d attempt(s): %w: %v", target, attempts, ErrActionFailed, last)
}

func (s *Searcher) status(ctx context.Context) (Observation, error) {
	var steps []Condition
	for _, sel := range []browser.Selector{s.view.Pending, s.view.Done} {
		if !sel.IsZero() {
			steps = append(steps, Condition{Selector: sel, State: browser.Visible, Timeout: s.settings.StatusTimeout})
		}
	}
	if len(steps) == 0 {
		return Observation{Name: "add-to-cart status"}, nil
	}
	return s.probe.Optional(ctx, "add-to-cart status", steps...)
}
