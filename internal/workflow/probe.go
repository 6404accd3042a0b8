package workflow

import (
	"context"
	"time"

	"go.uber.org/zap"

	"shopflow/internal/browser"
)

// Condition is a UI predicate with its own time bound.
type Condition struct {
	Selector browser.Selector
	State    browser.State
	Timeout  time.Duration
}

// Probe answers "does this UI condition hold" within bounded time. A condition
// that does not hold before its timeout, or that fails with a transient UI
// error, reads as false. Only infrastructural failures are returned as errors.
type Probe struct {
	session  browser.Session
	settings Settings
	logger   *zap.Logger
}

func NewProbe(session browser.Session, settings Settings, logger *zap.Logger) *Probe {
	return &Probe{
		session:  session,
		settings: settings,
		logger:   logger.Named("probe"),
	}
}

func (p *Probe) bound(timeout time.Duration) time.Duration {
	if timeout > 0 {
		return timeout
	}
	if p.settings.DefaultTimeout > 0 {
		return p.settings.DefaultTimeout
	}
	return DefaultSettings().DefaultTimeout
}

func (p *Probe) interval() time.Duration {
	if p.settings.PollInterval > 0 {
		return p.settings.PollInterval
	}
	return DefaultSettings().PollInterval
}

func (p *Probe) absorb(ctx context.Context, ok bool, err error, what string) (bool, error) {
	if err == nil {
		return ok, nil
	}
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	err = browser.Classify(err)
	if browser.IsTransient(err) {
		p.logger.Debug("condition read as false", zap.String("target", what), zap.Error(err))
		return false, nil
	}
	return false, err
}

// Await waits until sel is in state or timeout expires.
func (p *Probe) Await(ctx context.Context, sel browser.Selector, state browser.State, timeout time.Duration) (bool, error) {
	ok, err := p.session.WaitForState(ctx, sel, state, p.bound(timeout))
	return p.absorb(ctx, ok, err, sel.String())
}

// Holds waits for c using the condition's own timeout.
func (p *Probe) Holds(ctx context.Context, c Condition) (bool, error) {
	return p.Await(ctx, c.Selector, c.State, c.Timeout)
}

// Check evaluates sel against state once, without waiting.
func (p *Probe) Check(ctx context.Context, sel browser.Selector, state browser.State) (bool, error) {
	ok, err := p.session.WaitForState(ctx, sel, state, 0)
	return p.absorb(ctx, ok, err, sel.String())
}

// AwaitElement waits until a resolved handle is in state or timeout expires.
func (p *Probe) AwaitElement(ctx context.Context, el browser.Element, state browser.State, timeout time.Duration) (bool, error) {
	ok, err := el.WaitForState(ctx, state, p.bound(timeout))
	return p.absorb(ctx, ok, err, string(state))
}

// Loaded waits for a page load milestone.
func (p *Probe) Loaded(ctx context.Context, signal browser.Signal, timeout time.Duration) (bool, error) {
	ok, err := p.session.WaitForLoad(ctx, signal, p.bound(timeout))
	return p.absorb(ctx, ok, err, string(signal))
}

// Until polls cond until it reports true or timeout expires.
func (p *Probe) Until(ctx context.Context, timeout time.Duration, cond func(ctx context.Context) (bool, error)) (bool, error) {
	deadline := time.Now().Add(p.bound(timeout))
	for {
		ok, err := cond(ctx)
		if ok, err = p.absorb(ctx, ok, err, "poll"); err != nil || ok {
			return ok, err
		}
		if !time.Now().Before(deadline) {
			return false, nil
		}
		if err := p.sleep(ctx, p.interval()); err != nil {
			return false, err
		}
	}
}

// AwaitAny returns the index of the first condition observed to hold, or -1
// when none holds before timeout. Each condition's own Timeout is ignored.
func (p *Probe) AwaitAny(ctx context.Context, timeout time.Duration, conds ...Condition) (int, error) {
	found := -1
	_, err := p.Until(ctx, timeout, func(ctx context.Context) (bool, error) {
		for i, c := range conds {
			ok, err := p.Check(ctx, c.Selector, c.State)
			if err != nil {
				return false, err
			}
			if ok {
				found = i
				return true, nil
			}
		}
		return false, nil
	})
	if err != nil {
		return -1, err
	}
	return found, nil
}

// Optional waits for each step in order as a best-effort sub-step. A step
// that does not show up yields Observed=false; it never fails the caller.
func (p *Probe) Optional(ctx context.Context, name string, steps ...Condition) (Observation, error) {
	obs := Observation{Name: name}
	for _, step := range steps {
		ok, err := p.Holds(ctx, step)
		if err != nil {
			return obs, err
		}
		if !ok {
			p.logger.Info("optional step not observed", zap.String("step", name), zap.Stringer("target", step.Selector))
			return obs, nil
		}
	}
	obs.Observed = true
	return obs, nil
}

// Settle is a fixed wait, capped at MaxSettle, for the few places where the
// page gives no signal to wait on.
func (p *Probe) Settle(ctx context.Context, d time.Duration) error {
	if d > MaxSettle {
		d = MaxSettle
	}
	if d <= 0 {
		return nil
	}
	return p.sleep(ctx, d)
}

func (p *Probe) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
