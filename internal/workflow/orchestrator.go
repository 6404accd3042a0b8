package workflow

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"shopflow/internal/browser"
)

// MiniCartView names the header mini cart controls.
type MiniCartView struct {
	Trigger browser.Selector
	Panel   browser.Selector
	Counter browser.Selector
	Close   browser.Selector
}

// NavigationView names the controls used to reach a product listing.
type NavigationView struct {
	// MenuToggle opens the collapsed category menu when it is shown.
	MenuToggle   browser.Selector
	Category     func(name string) browser.Selector
	SearchBox    browser.Selector
	SearchSubmit browser.Selector
}

// Views is everything the orchestrator needs to know about the storefront.
type Views struct {
	Cart     CartView
	MiniCart MiniCartView
	Listing  ListingView
	Nav      NavigationView
}

// Orchestrator runs the named workflows. It keeps no state between calls; the
// session is passed in and owned by the caller.
type Orchestrator struct {
	views    Views
	settings Settings
	logger   *zap.Logger
}

func NewOrchestrator(views Views, settings Settings, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{views: views, settings: settings, logger: logger}
}

type run struct {
	id     string
	logger *zap.Logger
	probe  *Probe
	exec   *Executor
}

func (o *Orchestrator) begin(session browser.Session, workflow string) run {
	id := uuid.NewString()
	logger := o.logger.With(zap.String("run", id), zap.String("workflow", workflow))
	logger.Info("workflow started")
	return run{
		id:     id,
		logger: logger,
		probe:  NewProbe(session, o.settings, logger),
		exec:   NewExecutor(session, o.settings, logger),
	}
}

func (o *Orchestrator) finish(r run, out Outcome, err error) (Outcome, error) {
	out.RunID = r.id
	if err != nil {
		r.logger.Error("workflow failed", zap.Error(err))
		return out, err
	}
	r.logger.Info("workflow finished", zap.Stringer("outcome", out.Kind))
	return out, nil
}

// ClearCart opens the mini cart and empties it.
func (o *Orchestrator) ClearCart(ctx context.Context, session browser.Session) (Outcome, error) {
	r := o.begin(session, "clear-cart")
	out, err := o.clearCart(ctx, session, r)
	return o.finish(r, out, err)
}

func (o *Orchestrator) clearCart(ctx context.Context, session browser.Session, r run) (Outcome, error) {
	out := Outcome{Workflow: "clear-cart"}
	mc := o.views.MiniCart
	if !mc.Counter.IsZero() {
		if _, err := r.probe.Optional(ctx, "cart counter", Condition{Selector: mc.Counter, State: browser.Attached, Timeout: o.settings.CounterTimeout}); err != nil {
			return out, err
		}
	}
	if !mc.Trigger.IsZero() {
		if err := r.exec.Require(ctx, mc.Trigger, Click()); err != nil {
			return out, fmt.Errorf("open mini cart: %w", err)
		}
	}
	if !mc.Panel.IsZero() {
		shown, err := r.probe.Await(ctx, mc.Panel, browser.Visible, o.settings.PanelTimeout)
		if err != nil {
			return out, err
		}
		if !shown {
			return out, fmt.Errorf("mini cart panel %s not shown: %w", mc.Panel, ErrActionFailed)
		}
	}

	out, err := NewReconciler(session, o.views.Cart, o.settings, r.logger).Clear(ctx)
	if err != nil {
		return out, err
	}

	if out.OK() && !mc.Close.IsZero() {
		open, err := r.probe.Check(ctx, mc.Close, browser.Visible)
		if err != nil {
			return out, err
		}
		if open {
			if _, err := r.exec.Perform(ctx, mc.Close, Click()); err != nil {
				return out, err
			}
		}
	}
	return out, nil
}

// FindAndAdd searches the listing shown in session for product and adds it.
func (o *Orchestrator) FindAndAdd(ctx context.Context, session browser.Session, product string) (Outcome, error) {
	r := o.begin(session, "find-and-add")
	out, err := o.findAndAdd(ctx, session, r, product)
	return o.finish(r, out, err)
}

func (o *Orchestrator) findAndAdd(ctx context.Context, session browser.Session, r run, product string) (Outcome, error) {
	shown, err := r.probe.Await(ctx, o.views.Listing.Items, browser.Visible, o.settings.ListingTimeout)
	if err != nil {
		return Outcome{Workflow: "find-and-add", Target: product}, err
	}
	if !shown {
		r.logger.Warn("listing rendered no products", zap.Stringer("items", o.views.Listing.Items))
	}
	return NewSearcher(session, o.views.Listing, o.settings, r.logger).FindAndAct(ctx, product)
}

// AddFromCategory opens category from the navigation menu and adds product
// from its listing.
func (o *Orchestrator) AddFromCategory(ctx context.Context, session browser.Session, category, product string) (Outcome, error) {
	r := o.begin(session, "add-from-category")
	out, err := o.addFromCategory(ctx, session, r, category, product)
	out.Workflow = "add-from-category"
	return o.finish(r, out, err)
}

func (o *Orchestrator) addFromCategory(ctx context.Context, session browser.Session, r run, category, product string) (Outcome, error) {
	out := Outcome{Target: product}
	nav := o.views.Nav
	if nav.Category == nil {
		return out, fmt.Errorf("no category navigation configured: %w", ErrActionFailed)
	}
	if !nav.MenuToggle.IsZero() {
		collapsed, err := r.probe.Check(ctx, nav.MenuToggle, browser.Visible)
		if err != nil {
			return out, err
		}
		if collapsed {
			if err := r.exec.Require(ctx, nav.MenuToggle, Click()); err != nil {
				return out, fmt.Errorf("open menu: %w", err)
			}
		}
	}
	if err := r.exec.Require(ctx, nav.Category(category), Click()); err != nil {
		return out, fmt.Errorf("open category %q: %w", category, err)
	}
	if err := o.waitLoad(ctx, r); err != nil {
		return out, err
	}
	return o.findAndAdd(ctx, session, r, product)
}

// AddFromSearch types query into the storefront search and adds product from
// the results.
func (o *Orchestrator) AddFromSearch(ctx context.Context, session browser.Session, query, product string) (Outcome, error) {
	r := o.begin(session, "add-from-search")
	out, err := o.addFromSearch(ctx, session, r, query, product)
	out.Workflow = "add-from-search"
	return o.finish(r, out, err)
}

func (o *Orchestrator) addFromSearch(ctx context.Context, session browser.Session, r run, query, product string) (Outcome, error) {
	out := Outcome{Target: product}
	nav := o.views.Nav
	if nav.SearchBox.IsZero() {
		return out, fmt.Errorf("no search box configured: %w", ErrActionFailed)
	}
	if err := r.exec.Require(ctx, nav.SearchBox, Click()); err != nil {
		return out, fmt.Errorf("focus search: %w", err)
	}
	if err := r.exec.Require(ctx, nav.SearchBox, TypeSequentially(query, o.settings.TypeDelay)); err != nil {
		return out, fmt.Errorf("type search %q: %w", query, err)
	}
	if !nav.SearchSubmit.IsZero() {
		if err := r.exec.Require(ctx, nav.SearchSubmit, Click()); err != nil {
			return out, fmt.Errorf("submit search: %w", err)
		}
	}
	if err := o.waitLoad(ctx, r); err != nil {
		return out, err
	}
	return o.findAndAdd(ctx, session, r, product)
}

func (o *Orchestrator) waitLoad(ctx context.Context, r run) error {
	loaded, err := r.probe.Loaded(ctx, browser.SignalDOMContentLoaded, o.settings.LoadTimeout)
	if err != nil {
		return err
	}
	if !loaded {
		r.logger.Warn("page load signal not observed")
	}
	return nil
}
