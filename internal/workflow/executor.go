package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"shopflow/internal/browser"
)

type actionKind int

const (
	actionClick actionKind = iota
	actionFill
	actionType
	actionSelect
)

// Action is one user action performed on a single element.
type Action struct {
	kind  actionKind
	text  string
	delay time.Duration
}

func Click() Action { return Action{kind: actionClick} }

func Fill(text string) Action { return Action{kind: actionFill, text: text} }

// TypeSequentially types text one character at a time with delay in between.
func TypeSequentially(text string, delay time.Duration) Action {
	return Action{kind: actionType, text: text, delay: delay}
}

func SelectOption(value string) Action { return Action{kind: actionSelect, text: value} }

func (a Action) String() string {
	switch a.kind {
	case actionClick:
		return "click"
	case actionFill:
		return fmt.Sprintf("fill(%q)", a.text)
	case actionType:
		return fmt.Sprintf("type(%q, %s)", a.text, a.delay)
	case actionSelect:
		return fmt.Sprintf("select(%q)", a.text)
	}
	return "unknown"
}

func (a Action) apply(ctx context.Context, el browser.Element) error {
	switch a.kind {
	case actionClick:
		return el.Click(ctx)
	case actionFill:
		return el.Fill(ctx, a.text)
	case actionType:
		return el.TypeSequentially(ctx, a.text, a.delay)
	case actionSelect:
		return el.SelectOption(ctx, a.value())
	}
	return fmt.Errorf("unknown action %d", a.kind)
}

func (a Action) value() string { return a.text }

// Result reports how an action went. Transient failures (stale, detached,
// missing, not yet interactable) come back here rather than as errors so the
// caller decides whether to retry.
type Result struct {
	OK        bool
	Transient bool
	Err       error
}

// Executor performs single UI actions against a session.
type Executor struct {
	session  browser.Session
	settings Settings
	logger   *zap.Logger
}

func NewExecutor(session browser.Session, settings Settings, logger *zap.Logger) *Executor {
	return &Executor{
		session:  session,
		settings: settings,
		logger:   logger.Named("executor"),
	}
}

// Perform resolves sel to its first match and applies a to it.
func (x *Executor) Perform(ctx context.Context, sel browser.Selector, a Action) (Result, error) {
	el, err := browser.First(ctx, x.session, sel)
	if err != nil {
		return x.result(ctx, sel.String(), a, err)
	}
	return x.apply(ctx, el, sel.String(), a)
}

// Require performs a required action. A transient failure is reported as
// ErrActionFailed.
func (x *Executor) Require(ctx context.Context, sel browser.Selector, a Action) error {
	res, err := x.Perform(ctx, sel, a)
	if err != nil {
		return err
	}
	if !res.OK {
		return fmt.Errorf("%s on %s: %w: %v", a, sel, ErrActionFailed, res.Err)
	}
	return nil
}

// PerformOn applies a to an already resolved element.
func (x *Executor) PerformOn(ctx context.Context, el browser.Element, a Action) (Result, error) {
	return x.apply(ctx, el, "element", a)
}

func (x *Executor) apply(ctx context.Context, el browser.Element, target string, a Action) (Result, error) {
	actx := ctx
	if x.settings.ActionTimeout > 0 {
		var cancel context.CancelFunc
		actx, cancel = context.WithTimeout(ctx, x.settings.ActionTimeout)
		defer cancel()
	}
	err := a.apply(actx, el)
	if err != nil && ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("%s after %s: %w", a, x.settings.ActionTimeout, browser.ErrTimeout)
	}
	return x.result(ctx, target, a, err)
}

func (x *Executor) result(ctx context.Context, target string, a Action, err error) (Result, error) {
	if err == nil {
		x.logger.Debug("action performed", zap.String("action", a.String()), zap.String("target", target))
		return Result{OK: true}, nil
	}
	if ctx.Err() != nil {
		return Result{Err: ctx.Err()}, ctx.Err()
	}
	err = browser.Classify(err)
	if browser.IsTransient(err) {
		x.logger.Warn("action failed, recoverable",
			zap.String("action", a.String()),
			zap.String("target", target),
			zap.Error(err))
		return Result{Transient: true, Err: err}, nil
	}
	err = fmt.Errorf("%s on %s: %w", a, target, err)
	return Result{Err: err}, err
}
