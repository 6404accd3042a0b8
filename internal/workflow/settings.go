package workflow

import "time"

// MaxSettle bounds fixed waits used where the page offers no observable signal.
const MaxSettle = 3 * time.Second

// Settings holds the time bounds and retry budgets a workflow runs under.
// It is read-only input; workflows never mutate it.
type Settings struct {
	// DefaultTimeout replaces any non-positive wait so no wait is unbounded.
	DefaultTimeout time.Duration
	PollInterval   time.Duration
	ActionTimeout  time.Duration

	ScanTimeout      time.Duration
	ConfirmTimeout   time.Duration
	DetachTimeout    time.Duration
	AttentionTimeout time.Duration
	CounterTimeout   time.Duration
	PanelTimeout     time.Duration

	ListingTimeout    time.Duration
	NextPageTimeout   time.Duration
	TransitionTimeout time.Duration
	StatusTimeout     time.Duration
	LoadTimeout       time.Duration

	// RetrySlack is the fixed number of extra reconciliation passes allowed
	// beyond the cart size observed on the first scan.
	RetrySlack int
	// ActionAttempts is how often the search loop tries the target action.
	ActionAttempts int
	// TypeDelay is the per-character delay for sequential typing.
	TypeDelay time.Duration
	// RetryPause is how long the cart loop waits after a removal click that
	// did not take before it rescans.
	RetryPause time.Duration
}

// DefaultSettings mirrors the waits the storefront needs in practice.
func DefaultSettings() Settings {
	return Settings{
		DefaultTimeout:    10 * time.Second,
		PollInterval:      100 * time.Millisecond,
		ActionTimeout:     15 * time.Second,
		ScanTimeout:       7 * time.Second,
		ConfirmTimeout:    5 * time.Second,
		DetachTimeout:     15 * time.Second,
		AttentionTimeout:  4 * time.Second,
		CounterTimeout:    12 * time.Second,
		PanelTimeout:      10 * time.Second,
		ListingTimeout:    30 * time.Second,
		NextPageTimeout:   2 * time.Second,
		TransitionTimeout: 30 * time.Second,
		StatusTimeout:     5 * time.Second,
		LoadTimeout:       60 * time.Second,
		RetrySlack:        3,
		ActionAttempts:    2,
		TypeDelay:         400 * time.Millisecond,
		RetryPause:        500 * time.Millisecond,
	}
}
