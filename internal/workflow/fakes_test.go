package workflow

import (
	"fmt"
	"time"

	"shopflow/internal/browser"
	"shopflow/internal/browser/browsertest"
)

func testSettings() Settings {
	s := DefaultSettings()
	s.DefaultTimeout = 50 * time.Millisecond
	s.PollInterval = time.Millisecond
	s.ActionTimeout = time.Second
	s.ScanTimeout = 50 * time.Millisecond
	s.ConfirmTimeout = 20 * time.Millisecond
	s.DetachTimeout = 30 * time.Millisecond
	s.AttentionTimeout = 20 * time.Millisecond
	s.CounterTimeout = 20 * time.Millisecond
	s.PanelTimeout = 50 * time.Millisecond
	s.ListingTimeout = 50 * time.Millisecond
	s.NextPageTimeout = 10 * time.Millisecond
	s.TransitionTimeout = 100 * time.Millisecond
	s.StatusTimeout = 10 * time.Millisecond
	s.LoadTimeout = 50 * time.Millisecond
	s.TypeDelay = 0
	s.RetryPause = 5 * time.Millisecond
	return s
}

var testCart = CartView{
	Items:          browser.CSS(".minicart-items .product-item-name a"),
	EmptyIndicator: browser.Text("You have no items in your"),
	RemoveFor: func(name string) browser.Selector {
		return browser.Role("link", "Remove").Within(browser.CSS(".product-item-details").Filter(name)).First()
	},
	ConfirmOK:   browser.Role("button", "OK").Within(browser.CSS(".modal-popup.confirm")),
	AttentionOK: browser.Role("button", "OK").Within(browser.Role("dialog", "Attention")),
}

type removal int

const (
	// removeDetaches drops the line item as soon as removal is confirmed.
	removeDetaches removal = iota
	// removeRaces shows the "already removed" notice; the item leaves the
	// cart once the notice is dismissed.
	removeRaces
	// removeStuck shows the notice but the item never leaves.
	removeStuck
	// removeIgnored does nothing: no detach, no notice.
	removeIgnored
)

// fakeCart scripts a mini cart on a browsertest session.
type fakeCart struct {
	session   *browsertest.Session
	names     []string
	lines     map[string]*browsertest.Element
	removes   map[string]*browsertest.Element
	confirm   *browsertest.Element
	attention *browsertest.Element
	empty     *browsertest.Element

	// behaviour returns how the nth confirmed removal (1-based) plays out.
	behaviour    func(n int) removal
	pending      string
	confirmed    int
	removeClicks int
}

func newFakeCart(names ...string) *fakeCart {
	c := &fakeCart{
		session:   browsertest.NewSession(),
		lines:     make(map[string]*browsertest.Element),
		removes:   make(map[string]*browsertest.Element),
		confirm:   &browsertest.Element{Text: "OK", Hidden: true},
		attention: &browsertest.Element{Text: "OK", Hidden: true},
		empty:     browsertest.NewElement("You have no items in your shopping cart."),
		behaviour: func(int) removal { return removeDetaches },
	}
	for _, n := range names {
		c.add(n)
	}

	c.session.Handle(testCart.Items, func() []*browsertest.Element {
		out := make([]*browsertest.Element, 0, len(c.names))
		for _, n := range c.names {
			out = append(out, c.lines[n])
		}
		return out
	})
	c.session.Handle(testCart.EmptyIndicator, func() []*browsertest.Element {
		if len(c.names) == 0 {
			return []*browsertest.Element{c.empty}
		}
		return nil
	})
	c.session.HandleStatic(testCart.ConfirmOK, c.confirm)
	c.session.HandleStatic(testCart.AttentionOK, c.attention)

	c.confirm.OnClick = func(e *browsertest.Element) {
		e.Hidden = true
		c.confirmed++
		switch c.behaviour(c.confirmed) {
		case removeDetaches:
			c.drop(c.pending)
		case removeRaces:
			name := c.pending
			c.attention.Hidden = false
			c.attention.OnClick = func(e *browsertest.Element) {
				e.Hidden = true
				c.drop(name)
			}
		case removeStuck:
			c.attention.Hidden = false
			c.attention.OnClick = func(e *browsertest.Element) { e.Hidden = true }
		}
	}
	return c
}

func (c *fakeCart) add(name string) {
	c.names = append(c.names, name)
	c.lines[name] = browsertest.NewElement(name)
	rm := browsertest.NewElement("Remove")
	rm.OnClick = func(*browsertest.Element) {
		c.removeClicks++
		c.pending = name
		c.confirm.Hidden = false
	}
	c.removes[name] = rm
	c.session.Handle(testCart.RemoveFor(name), func() []*browsertest.Element {
		if c.has(name) {
			return []*browsertest.Element{c.removes[name]}
		}
		return nil
	})
}

func (c *fakeCart) has(name string) bool {
	for _, n := range c.names {
		if n == name {
			return true
		}
	}
	return false
}

func (c *fakeCart) drop(name string) {
	for i, n := range c.names {
		if n == name {
			c.names = append(c.names[:i], c.names[i+1:]...)
			c.lines[name].Remove()
			c.removes[name].Remove()
			return
		}
	}
}

var testListing = ListingView{
	Items:    browser.CSS(".products-grid .product-item-link"),
	NextPage: browser.Role("link", "Page Next"),
	ActionFor: func(name string) browser.Selector {
		return browser.Role("button", "Add to Cart").Within(browser.CSS(".product-item-details").Filter(name)).First()
	},
	Pending: browser.Role("button", "Adding..."),
	Done:    browser.Role("button", "Added"),
}

func pageURL(i int) string {
	return fmt.Sprintf("https://shop.test/liquor.html?p=%d", i+1)
}

// fakeListing scripts a paginated product listing. Page numbers in visits are
// 1-based.
type fakeListing struct {
	session *browsertest.Session
	pages   [][]string
	current int
	visits  []int
	actions map[string]int

	items   [][]*browsertest.Element
	next    []*browsertest.Element
	pending *browsertest.Element
	done    *browsertest.Element

	// stallNext makes next-page clicks do nothing.
	stallNext bool
}

func newFakeListing(pages ...[]string) *fakeListing {
	l := &fakeListing{
		session: browsertest.NewSession(),
		pages:   pages,
		visits:  []int{1},
		actions: make(map[string]int),
		pending: &browsertest.Element{Text: "Adding...", Hidden: true},
		done:    &browsertest.Element{Text: "Added", Hidden: true},
	}
	l.session.CurrentURL = pageURL(0)

	seen := make(map[string]bool)
	for i, names := range pages {
		var els []*browsertest.Element
		for _, n := range names {
			els = append(els, browsertest.NewElement(n))
			if !seen[n] {
				seen[n] = true
				l.handleAction(n)
			}
		}
		l.items = append(l.items, els)

		var next *browsertest.Element
		if i < len(pages)-1 {
			next = browsertest.NewElement("Page Next").
				WithAttr("href", pageURL(i+1)).
				WithAttr("class", "action next")
			next.OnClick = func(*browsertest.Element) {
				if !l.stallNext {
					l.goTo(l.current + 1)
				}
			}
		}
		l.next = append(l.next, next)
	}

	l.session.Handle(testListing.Items, func() []*browsertest.Element { return l.items[l.current] })
	l.session.Handle(testListing.NextPage, func() []*browsertest.Element {
		if l.next[l.current] == nil {
			return nil
		}
		return []*browsertest.Element{l.next[l.current]}
	})
	l.session.HandleStatic(testListing.Pending, l.pending)
	l.session.HandleStatic(testListing.Done, l.done)
	return l
}

func (l *fakeListing) handleAction(name string) {
	btn := browsertest.NewElement("Add to Cart")
	btn.OnClick = func(*browsertest.Element) {
		l.actions[name]++
		l.pending.Hidden = false
		l.done.Hidden = false
	}
	l.session.Handle(testListing.ActionFor(name), func() []*browsertest.Element {
		for _, n := range l.pages[l.current] {
			if n == name {
				return []*browsertest.Element{btn}
			}
		}
		return nil
	})
}

func (l *fakeListing) goTo(i int) {
	l.current = i
	l.visits = append(l.visits, i+1)
	l.session.CurrentURL = pageURL(i)
}
