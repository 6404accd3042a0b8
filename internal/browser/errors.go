package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSessionLost means the browser or page is gone. Always fatal.
	ErrSessionLost = errors.New("browser session lost")
	// ErrStaleElement means a handle no longer points at a node in the document.
	ErrStaleElement = errors.New("element is stale or detached from the document")
	// ErrNotFound means a selector resolved to no elements.
	ErrNotFound = errors.New("no element matches selector")
	// ErrTimeout means an action could not complete in its time bound.
	ErrTimeout = errors.New("timed out")
	// ErrNotInteractable means the node exists but cannot receive input yet.
	ErrNotInteractable = errors.New("element is not interactable")
)

// IsTransient reports whether err is a UI race a workflow may recover from.
func IsTransient(err error) bool {
	return errors.Is(err, ErrStaleElement) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrNotInteractable)
}

// IsNotInteractableError matches driver messages for covered, hidden or
// disabled targets.
func IsNotInteractableError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "not interactable") ||
		strings.Contains(errStr, "covered by") ||
		strings.Contains(errStr, "intercepts pointer events") ||
		strings.Contains(errStr, "element is not visible") ||
		strings.Contains(errStr, "element is not enabled") ||
		strings.Contains(errStr, "invisible shape")
}

// Classify maps a raw driver error onto the sentinels above. Errors that
// match nothing are returned unchanged and treated as fatal by callers.
func Classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrSessionLost), IsTransient(err), errors.Is(err, context.Canceled):
		return err
	case IsSessionLostError(err):
		return fmt.Errorf("%w: %v", ErrSessionLost, err)
	case IsStaleError(err):
		return fmt.Errorf("%w: %v", ErrStaleElement, err)
	case IsNotInteractableError(err):
		return fmt.Errorf("%w: %v", ErrNotInteractable, err)
	case IsTimeoutError(err):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}

// IsFatal reports whether err must be propagated untouched.
func IsFatal(err error) bool {
	return err != nil && !IsTransient(err)
}

// IsStaleError matches driver messages for nodes that left the document.
func IsStaleError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "no node with given id") ||
		strings.Contains(errStr, "node is detached") ||
		strings.Contains(errStr, "not attached to the dom") ||
		strings.Contains(errStr, "could not find node") ||
		strings.Contains(errStr, "cannot find object") ||
		strings.Contains(errStr, "object reference chain is too long") ||
		strings.Contains(errStr, "element is not attached") ||
		strings.Contains(errStr, "handle is disposed") ||
		strings.Contains(errStr, "execution context was destroyed") ||
		strings.Contains(errStr, "cannot find context with specified id") ||
		strings.Contains(errStr, "stale")
}

// IsTimeoutError matches deadline and driver timeout messages.
func IsTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "context deadline exceeded") ||
		strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "timed out")
}

// IsSessionLostError matches messages emitted once the browser or target closed.
func IsSessionLostError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "target closed") ||
		strings.Contains(errStr, "target page, context or browser has been closed") ||
		strings.Contains(errStr, "browser has been closed") ||
		strings.Contains(errStr, "session closed") ||
		strings.Contains(errStr, "websocket: close") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "broken pipe") ||
		strings.Contains(errStr, "use of closed network connection")
}
