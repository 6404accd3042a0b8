package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrProductNotFound is returned by Outcome.Err for NotFound outcomes.
	ErrProductNotFound = errors.New("product not found")
	// ErrRetriesExhausted is returned by Outcome.Err for ExhaustedRetries outcomes.
	ErrRetriesExhausted = errors.New("retry budget exhausted")

	// ErrNoNavigationTarget means the next-page control has no target to wait for.
	ErrNoNavigationTarget = errors.New("next page control has no navigation target")
	// ErrPageTransition means a page change was requested but never observed.
	ErrPageTransition = errors.New("page transition not observed")
	// ErrPaginationCycle means pagination led back to an already scanned page.
	ErrPaginationCycle = errors.New("pagination revisited a scanned page")
	// ErrActionFailed means a required UI action could not be completed.
	ErrActionFailed = errors.New("ui action failed")
)

// Kind tags a workflow outcome.
type Kind int

const (
	Success Kind = iota
	NotFound
	ExhaustedRetries
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case NotFound:
		return "not-found"
	case ExhaustedRetries:
		return "exhausted-retries"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Observation records whether an optional sub-step was seen.
type Observation struct {
	Name     string
	Observed bool
}

// Outcome is the terminal state of one workflow invocation.
type Outcome struct {
	Kind     Kind
	Workflow string
	RunID    string
	// Target is the product searched for.
	Target string

	// Passes counts cart scans, Removed counts completed removal cycles.
	Passes  int
	Removed int

	// Pages counts result pages scanned, Transitions counts next-page moves.
	Pages       int
	Transitions int

	Confirmation Observation
}

// OK reports whether the workflow reached its goal.
func (o Outcome) OK() bool {
	return o.Kind == Success
}

// Err converts a non-success outcome into a descriptive error for assertions.
func (o Outcome) Err() error {
	switch o.Kind {
	case Success:
		return nil
	case NotFound:
		return fmt.Errorf("%s: %q after %d page(s): %w", o.Workflow, o.Target, o.Pages, ErrProductNotFound)
	case ExhaustedRetries:
		return fmt.Errorf("%s: %d pass(es), %d removed: %w", o.Workflow, o.Passes, o.Removed, ErrRetriesExhausted)
	}
	return fmt.Errorf("%s: unexpected outcome %s", o.Workflow, o.Kind)
}

func (o Outcome) String() string {
	if o.Target != "" {
		return fmt.Sprintf("%s(%s): %s", o.Workflow, o.Target, o.Kind)
	}
	return fmt.Sprintf("%s: %s", o.Workflow, o.Kind)
}
