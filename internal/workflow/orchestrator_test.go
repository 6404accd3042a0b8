package workflow

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"shopflow/internal/browser"
	"shopflow/internal/browser/browsertest"
)

var testViews = Views{
	Cart: testCart,
	MiniCart: MiniCartView{
		Trigger: browser.Role("link", "My Cart"),
		Panel:   browser.CSS(".block-minicart"),
		Counter: browser.CSS(".counter-number"),
		Close:   browser.CSS("#btn-minicart-close"),
	},
	Listing: testListing,
	Nav: NavigationView{
		MenuToggle: browser.Role("tab", "Menu"),
		Category: func(name string) browser.Selector {
			return browser.Role("link", name).Within(browser.CSS("nav.navigation"))
		},
		SearchBox:    browser.Role("combobox", "Search"),
		SearchSubmit: browser.Role("button", "Search"),
	},
}

// withMiniCart adds the header mini cart to a scripted cart.
func withMiniCart(c *fakeCart) (trigger, panel, closer *browsertest.Element) {
	panel = &browsertest.Element{Hidden: true}
	closer = &browsertest.Element{Text: "Close", Hidden: true}
	trigger = browsertest.NewElement("My Cart")
	trigger.OnClick = func(*browsertest.Element) {
		panel.Hidden = false
		closer.Hidden = false
	}
	closer.OnClick = func(*browsertest.Element) {
		panel.Hidden = true
		closer.Hidden = true
	}
	c.session.HandleStatic(testViews.MiniCart.Trigger, trigger)
	c.session.HandleStatic(testViews.MiniCart.Panel, panel)
	c.session.HandleStatic(testViews.MiniCart.Counter, browsertest.NewElement(""))
	c.session.HandleStatic(testViews.MiniCart.Close, closer)
	return trigger, panel, closer
}

func TestOrchestratorClearCart(t *testing.T) {
	cart := newFakeCart("Gin A", "Gin B")
	trigger, panel, closer := withMiniCart(cart)
	o := NewOrchestrator(testViews, testSettings(), zaptest.NewLogger(t))

	out, err := o.ClearCart(context.Background(), cart.session)

	require.NoError(t, err)
	assert.True(t, out.OK())
	assert.Equal(t, "clear-cart", out.Workflow)
	assert.Equal(t, 2, out.Removed)
	assert.Equal(t, 1, trigger.Clicks)
	assert.Equal(t, 1, closer.Clicks)
	assert.True(t, panel.Hidden)
	_, perr := uuid.Parse(out.RunID)
	assert.NoError(t, perr)
}

func TestOrchestratorClearCartIsIdempotent(t *testing.T) {
	cart := newFakeCart()
	withMiniCart(cart)
	o := NewOrchestrator(testViews, testSettings(), zaptest.NewLogger(t))

	for i := 0; i < 2; i++ {
		out, err := o.ClearCart(context.Background(), cart.session)
		require.NoError(t, err)
		assert.True(t, out.OK())
		assert.Equal(t, 0, out.Removed)
	}
	assert.Equal(t, 0, cart.removeClicks)
}

func TestOrchestratorRunsGetDistinctIDs(t *testing.T) {
	cart := newFakeCart()
	withMiniCart(cart)
	o := NewOrchestrator(testViews, testSettings(), zaptest.NewLogger(t))

	first, err := o.ClearCart(context.Background(), cart.session)
	require.NoError(t, err)
	second, err := o.ClearCart(context.Background(), cart.session)
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestOrchestratorClearCartFailsWhenPanelNeverOpens(t *testing.T) {
	cart := newFakeCart("Gin A")
	trigger, _, _ := withMiniCart(cart)
	trigger.OnClick = nil
	o := NewOrchestrator(testViews, testSettings(), zaptest.NewLogger(t))

	out, err := o.ClearCart(context.Background(), cart.session)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrActionFailed)
	assert.NotEmpty(t, out.RunID)
	assert.Equal(t, 0, cart.removeClicks)
}

func TestOrchestratorFindAndAdd(t *testing.T) {
	listing := newFakeListing(fivePages()...)
	o := NewOrchestrator(testViews, testSettings(), zaptest.NewLogger(t))

	out, err := o.FindAndAdd(context.Background(), listing.session, "Whiskey X")

	require.NoError(t, err)
	assert.True(t, out.OK())
	assert.Equal(t, "find-and-add", out.Workflow)
	assert.Equal(t, "Whiskey X", out.Target)
	assert.Equal(t, 3, out.Pages)
	assert.NoError(t, out.Err())
}

func TestOrchestratorFindAndAddNotFound(t *testing.T) {
	listing := newFakeListing(fivePages()...)
	o := NewOrchestrator(testViews, testSettings(), zaptest.NewLogger(t))

	out, err := o.FindAndAdd(context.Background(), listing.session, "Absinthe Z")

	require.NoError(t, err)
	assert.Equal(t, NotFound, out.Kind)
	assert.Equal(t, `find-and-add(Absinthe Z): not-found`, out.String())
	assert.ErrorIs(t, out.Err(), ErrProductNotFound)
}

func TestOrchestratorAddFromSearch(t *testing.T) {
	listing := newFakeListing([]string{"Gin A", "Whiskey X"})
	box := browsertest.NewElement("")
	submit := browsertest.NewElement("Search")
	listing.session.HandleStatic(testViews.Nav.SearchBox, box)
	listing.session.HandleStatic(testViews.Nav.SearchSubmit, submit)
	o := NewOrchestrator(testViews, testSettings(), zaptest.NewLogger(t))

	out, err := o.AddFromSearch(context.Background(), listing.session, "whiskey", "Whiskey X")

	require.NoError(t, err)
	assert.True(t, out.OK())
	assert.Equal(t, "add-from-search", out.Workflow)
	assert.Equal(t, "whiskey", box.Typed)
	assert.Equal(t, 1, box.Clicks)
	assert.Equal(t, 1, submit.Clicks)
	assert.Equal(t, 1, listing.actions["Whiskey X"])
}

func TestOrchestratorAddFromCategory(t *testing.T) {
	listing := newFakeListing([]string{"Gin A"}, []string{"Whiskey X"})
	menu := &browsertest.Element{Text: "Menu", Hidden: true}
	link := browsertest.NewElement("Whiskey")
	listing.session.HandleStatic(testViews.Nav.MenuToggle, menu)
	listing.session.HandleStatic(testViews.Nav.Category("Whiskey"), link)
	o := NewOrchestrator(testViews, testSettings(), zaptest.NewLogger(t))

	out, err := o.AddFromCategory(context.Background(), listing.session, "Whiskey", "Whiskey X")

	require.NoError(t, err)
	assert.True(t, out.OK())
	assert.Equal(t, "add-from-category", out.Workflow)
	assert.Equal(t, 0, menu.Clicks, "menu toggle is only used when shown")
	assert.Equal(t, 1, link.Clicks)
	assert.Equal(t, 1, out.Transitions)
}

func TestOrchestratorAddFromCategoryMissingLink(t *testing.T) {
	listing := newFakeListing([]string{"Gin A"})
	o := NewOrchestrator(testViews, testSettings(), zaptest.NewLogger(t))

	out, err := o.AddFromCategory(context.Background(), listing.session, "Cider", "Gin A")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrActionFailed)
	assert.Equal(t, "add-from-category", out.Workflow)
	assert.Empty(t, listing.actions)
}
