package workflow

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"shopflow/internal/browser"
)

// CartView names the cart elements the reconciliation loop touches.
type CartView struct {
	// Items matches the name node of every line item.
	Items          browser.Selector
	EmptyIndicator browser.Selector
	// RemoveFor returns the remove control of the named line item.
	RemoveFor   func(name string) browser.Selector
	ConfirmOK   browser.Selector
	AttentionOK browser.Selector
}

// LineItem is one cart entry as seen on a single scan.
type LineItem struct {
	Name      string
	Removable bool
}

type cartState int

const (
	cartScanning cartState = iota
	cartRemovingItem
	cartConfirmingRemoval
	cartEmpty
	cartExhausted
)

func (s cartState) String() string {
	switch s {
	case cartScanning:
		return "scanning"
	case cartRemovingItem:
		return "removing-item"
	case cartConfirmingRemoval:
		return "confirming-removal"
	case cartEmpty:
		return "empty"
	case cartExhausted:
		return "exhausted"
	}
	return "unknown"
}

// Reconciler drives a cart to the empty state.
type Reconciler struct {
	session  browser.Session
	view     CartView
	settings Settings
	probe    *Probe
	exec     *Executor
	logger   *zap.Logger
}

func NewReconciler(session browser.Session, view CartView, settings Settings, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		session:  session,
		view:     view,
		settings: settings,
		probe:    NewProbe(session, settings, logger),
		exec:     NewExecutor(session, settings, logger),
		logger:   logger.Named("cart"),
	}
}

// Scan reads the cart once. empty is true only when the empty-cart indicator
// is visible; a cart that rendered nothing within the scan timeout returns no
// items and empty=false.
func (r *Reconciler) Scan(ctx context.Context) (items []LineItem, empty bool, err error) {
	idx, err := r.probe.AwaitAny(ctx, r.settings.ScanTimeout,
		Condition{Selector: r.view.EmptyIndicator, State: browser.Visible},
		Condition{Selector: r.view.Items, State: browser.Visible},
	)
	if err != nil {
		return nil, false, err
	}
	switch idx {
	case 0:
		return nil, true, nil
	case -1:
		r.logger.Warn("cart rendered neither items nor the empty indicator")
		return nil, false, nil
	}

	els, err := r.session.Find(ctx, r.view.Items)
	if err != nil {
		if _, err := r.probe.absorb(ctx, false, err, r.view.Items.String()); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}
	for _, el := range els {
		text, present, err := el.TextContent(ctx)
		if err != nil {
			if _, err := r.probe.absorb(ctx, false, err, "line item"); err != nil {
				return nil, false, err
			}
			continue
		}
		name := strings.TrimSpace(text)
		if !present || name == "" {
			continue
		}
		removable, err := r.probe.Check(ctx, r.view.RemoveFor(name), browser.Attached)
		if err != nil {
			return nil, false, err
		}
		items = append(items, LineItem{Name: name, Removable: removable})
	}
	return items, false, nil
}

// Clear removes line items until the empty indicator shows. The loop runs at
// most N+K removal cycles, where N is the item count on the first scan that
// saw items and K is Settings.RetrySlack. Races (stale handles, the item
// vanishing first, the "already removed" notice) are recovered here; only
// infrastructural errors are returned.
func (r *Reconciler) Clear(ctx context.Context) (Outcome, error) {
	out := Outcome{Workflow: "clear-cart"}
	slack := r.settings.RetrySlack
	if slack < 0 {
		slack = 0
	}
	budget := slack
	sized := false
	cycles := 0

	var (
		target LineItem
		handle browser.Element
	)
	state := cartScanning
	for {
		log := r.logger.With(zap.Stringer("state", state), zap.Int("pass", out.Passes))
		switch state {
		case cartScanning:
			out.Passes++
			items, empty, err := r.Scan(ctx)
			if err != nil {
				return out, err
			}
			if empty {
				state = cartEmpty
				continue
			}
			if !sized && len(items) > 0 {
				budget = len(items) + slack
				sized = true
			}
			cycles++
			if cycles > budget {
				state = cartExhausted
				continue
			}
			picked := false
			for _, it := range items {
				if it.Removable {
					target, picked = it, true
					break
				}
			}
			if !picked {
				idx, err := r.awaitRemovable(ctx, items)
				if err != nil {
					return out, err
				}
				if idx < 0 {
					log.Warn("no removable line item on this pass", zap.Int("items", len(items)))
					continue
				}
				target = items[idx]
			}
			state = cartRemovingItem

		case cartRemovingItem:
			sel := r.view.RemoveFor(target.Name)
			el, err := browser.First(ctx, r.session, sel)
			if err == nil {
				var res Result
				res, err = r.exec.PerformOn(ctx, el, Click())
				if err != nil {
					return out, err
				}
				if !res.OK {
					err = res.Err
				}
			}
			if err != nil {
				if _, err := r.probe.absorb(ctx, false, err, sel.String()); err != nil {
					return out, err
				}
				log.Warn("remove action did not take, rescanning", zap.String("item", target.Name), zap.Error(err))
				if err := r.probe.Settle(ctx, r.settings.RetryPause); err != nil {
					return out, err
				}
				state = cartScanning
				continue
			}
			handle = el
			state = cartConfirmingRemoval

		case cartConfirmingRemoval:
			removed, err := r.confirm(ctx, log, target, handle)
			if err != nil {
				return out, err
			}
			if removed {
				out.Removed++
				log.Info("line item removed", zap.String("item", target.Name))
			} else {
				log.Warn("line item still present after removal, rescanning", zap.String("item", target.Name))
			}
			handle = nil
			state = cartScanning

		case cartEmpty:
			out.Kind = Success
			r.logger.Info("cart is empty", zap.Int("passes", out.Passes), zap.Int("removed", out.Removed))
			return out, nil

		case cartExhausted:
			out.Kind = ExhaustedRetries
			r.logger.Error("cart not empty after retry budget",
				zap.Int("budget", budget), zap.Int("passes", out.Passes), zap.Int("removed", out.Removed))
			return out, nil
		}
	}
}

// awaitRemovable waits up to ConfirmTimeout for a remove control to render
// for any of items and returns its index, or -1.
func (r *Reconciler) awaitRemovable(ctx context.Context, items []LineItem) (int, error) {
	if len(items) == 0 {
		return -1, nil
	}
	conds := make([]Condition, 0, len(items))
	for _, it := range items {
		conds = append(conds, Condition{Selector: r.view.RemoveFor(it.Name), State: browser.Attached})
	}
	return r.probe.AwaitAny(ctx, r.settings.ConfirmTimeout, conds...)
}

// confirm accepts the confirmation dialog and reports whether the item left
// the cart. Seeing the "already removed" notice counts as removed.
func (r *Reconciler) confirm(ctx context.Context, log *zap.Logger, item LineItem, handle browser.Element) (bool, error) {
	shown, err := r.probe.Await(ctx, r.view.ConfirmOK, browser.Visible, r.settings.ConfirmTimeout)
	if err != nil {
		return false, err
	}
	if shown {
		res, err := r.exec.Perform(ctx, r.view.ConfirmOK, Click())
		if err != nil {
			return false, err
		}
		if !res.OK {
			log.Warn("confirmation click did not take", zap.String("item", item.Name), zap.Error(res.Err))
		}
	} else {
		log.Info("no confirmation dialog", zap.String("item", item.Name))
	}

	detached, attention := false, false
	if _, err := r.probe.Until(ctx, r.settings.DetachTimeout, func(ctx context.Context) (bool, error) {
		gone, err := handle.WaitForState(ctx, browser.Detached, 0)
		if err != nil && errors.Is(browser.Classify(err), browser.ErrStaleElement) {
			gone, err = true, nil
		}
		if err != nil {
			return false, err
		}
		if gone {
			detached = true
			return true, nil
		}
		attention, err = r.probe.Check(ctx, r.view.AttentionOK, browser.Visible)
		return attention, err
	}); err != nil {
		return false, err
	}

	if !attention {
		wait := r.settings.AttentionTimeout
		if detached {
			attention, err = r.probe.Check(ctx, r.view.AttentionOK, browser.Visible)
		} else {
			attention, err = r.probe.Await(ctx, r.view.AttentionOK, browser.Visible, wait)
		}
		if err != nil {
			return false, err
		}
	}
	if attention {
		log.Warn("item was already removed, dismissing notice", zap.String("item", item.Name))
		res, err := r.exec.Perform(ctx, r.view.AttentionOK, Click())
		if err != nil {
			return false, err
		}
		if !res.OK {
			log.Warn("notice dismissal did not take", zap.String("item", item.Name), zap.Error(res.Err))
		}
	}
	return detached || attention, nil
}
