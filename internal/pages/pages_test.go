package pages

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"shopflow/internal/browser"
	"shopflow/internal/browser/browsertest"
	"shopflow/internal/config"
	"shopflow/internal/workflow"
)

func text() config.AppConstants {
	return config.DefaultConfig().AppConstants
}

func newStorefront(t *testing.T, session *browsertest.Session) *Storefront {
	t.Helper()
	return New(session, "https://shop.test/", text(), fastSettings(), zaptest.NewLogger(t))
}

func fastSettings() workflow.Settings {
	s := workflow.DefaultSettings()
	s.DefaultTimeout = 20 * time.Millisecond
	s.PollInterval = time.Millisecond
	s.PanelTimeout = 20 * time.Millisecond
	s.CounterTimeout = 20 * time.Millisecond
	s.LoadTimeout = 20 * time.Millisecond
	s.ListingTimeout = 20 * time.Millisecond
	s.TypeDelay = 0
	return s
}

func TestItemSelector(t *testing.T) {
	tests := []struct {
		category Category
		item     string
		expected string
	}{
		{CartLineItem, "Gin A", `css=.minicart-items-wrapper .product-item-details[has="text=\"Gin A\"[exact]"]`},
		{CartRemove, "Gin A", `css=.minicart-items-wrapper .product-item-details[has="text=\"Gin A\"[exact]"] >> role=link[name="Remove"] >> nth=0`},
		{ListingProduct, "Whiskey X", `css=.product-item-details[has="text=\"Whiskey X\"[exact]"]`},
		{ListingAddToCart, "Whiskey X", `css=.product-item-details[has="text=\"Whiskey X\"[exact]"] >> role=button[name="Add to Cart"] >> nth=0`},
		{MenuCategory, "LIQUOR", `role=link[name="LIQUOR"] >> nth=0`},
		{CartPageProduct, "Gin A", `role=cell[name="Gin A"] >> nth=0`},
	}

	for _, tt := range tests {
		t.Run(tt.category.String(), func(t *testing.T) {
			sel := ItemSelector(tt.category, tt.item)
			assert.Equal(t, tt.expected, sel.String())
			assert.Equal(t, sel, ItemSelector(tt.category, tt.item), "same input, same selector")
		})
	}

	assert.True(t, ItemSelector(Category(99), "x").IsZero())
}

func TestItemSelectorMatchesWholeProductName(t *testing.T) {
	for _, c := range []Category{CartLineItem, CartRemove, ListingProduct, ListingAddToCart} {
		gin := ItemSelector(c, "Gin")
		assert.NotEqual(t, gin, ItemSelector(c, "Ginger Beer"), c)

		card := gin
		if card.Scope != nil {
			card = *card.Scope
		}
		require.NotNil(t, card.Has, c)
		assert.Equal(t, "Gin", card.Has.Text, c)
		assert.True(t, card.Has.Exact, c)
		assert.Empty(t, card.HasText, "substring filters would match Ginger Beer")
	}
}

func TestViewsWireItemSelectors(t *testing.T) {
	v := Views(text())

	assert.Equal(t, ItemSelector(CartRemove, "Gin A"), v.Cart.RemoveFor("Gin A"))
	assert.Equal(t, ItemSelector(ListingAddToCart, "Rum D"), v.Listing.ActionFor("Rum D"))
	assert.Equal(t, ItemSelector(MenuCategory, "WINE"), v.Nav.Category("WINE"))
	assert.False(t, v.Cart.Items.IsZero())
	assert.False(t, v.MiniCart.Trigger.IsZero())
}

func TestViewsUseConfiguredCopy(t *testing.T) {
	custom := text()
	custom.EmptyCart = "Votre panier est vide."

	v := Views(custom)

	assert.Equal(t, browser.Text("Votre panier est vide."), v.Cart.EmptyIndicator)
	assert.Equal(t, EmptyCart(custom), v.Cart.EmptyIndicator)
}

func TestAcceptTerms(t *testing.T) {
	session := browsertest.NewSession()
	accept := browsertest.NewElement("Accept & Enter")
	accept.OnClick = func(e *browsertest.Element) { e.Hidden = true }
	session.HandleStatic(AcceptTerms, accept)
	s := newStorefront(t, session)

	accepted, err := s.AcceptTerms(context.Background())

	require.NoError(t, err)
	assert.True(t, accepted)
	assert.Equal(t, []string{"https://shop.test/"}, session.Gotos)
	assert.Equal(t, 1, accept.Clicks)
}

func TestAcceptTermsAlreadyAccepted(t *testing.T) {
	session := browsertest.NewSession()
	s := newStorefront(t, session)

	accepted, err := s.AcceptTerms(context.Background())

	require.NoError(t, err)
	assert.False(t, accepted)
}

func TestSignIn(t *testing.T) {
	session := browsertest.NewSession()
	link := browsertest.NewElement("Sign In")
	email := browsertest.NewElement("")
	password := browsertest.NewElement("")
	submit := browsertest.NewElement("Sign In")
	signedIn := false
	submit.OnClick = func(*browsertest.Element) { signedIn = true }
	session.HandleStatic(SignInLink, link)
	session.HandleStatic(EmailBox, email)
	session.HandleStatic(PasswordBox, password)
	session.HandleStatic(SignInButton, submit)
	session.Handle(SignOutLink, func() []*browsertest.Element {
		if signedIn {
			return []*browsertest.Element{browsertest.NewElement("Sign Out")}
		}
		return nil
	})
	s := newStorefront(t, session)

	err := s.SignIn(context.Background(), "shopper@example.com", "secret")

	require.NoError(t, err)
	assert.Equal(t, 1, link.Clicks)
	assert.Equal(t, "shopper@example.com", email.Typed)
	assert.Equal(t, "secret", password.Typed)
}

func TestSignInRejected(t *testing.T) {
	session := browsertest.NewSession()
	for _, sel := range []browser.Selector{SignInLink, EmailBox, PasswordBox, SignInButton} {
		session.HandleStatic(sel, browsertest.NewElement(""))
	}
	session.HandleStatic(LoginError(text()), browsertest.NewElement("The account sign-in was incorrect"))
	s := newStorefront(t, session)

	err := s.SignIn(context.Background(), "nobody@example.com", "wrong")

	assert.ErrorIs(t, err, ErrSignInRejected)
	assert.Contains(t, err.Error(), "nobody@example.com")
}

func TestSignInRequiresCredentials(t *testing.T) {
	s := newStorefront(t, browsertest.NewSession())

	assert.Error(t, s.SignIn(context.Background(), "", "secret"))
}

func TestSignOut(t *testing.T) {
	session := browsertest.NewSession()
	menu := browsertest.NewElement("Change")
	signOut := &browsertest.Element{Text: "Sign Out", Hidden: true}
	signedIn := true
	menu.OnClick = func(*browsertest.Element) { signOut.Hidden = false }
	signOut.OnClick = func(e *browsertest.Element) {
		signedIn = false
		e.Remove()
	}
	session.HandleStatic(AccountMenu, menu)
	session.HandleStatic(SignOutLink, signOut)
	session.Handle(SignInLink, func() []*browsertest.Element {
		if signedIn {
			return nil
		}
		return []*browsertest.Element{browsertest.NewElement("Sign In")}
	})
	s := newStorefront(t, session)

	in, err := s.SignedIn(context.Background())
	require.NoError(t, err)
	assert.True(t, in)

	require.NoError(t, s.SignOut(context.Background()))

	assert.Equal(t, 1, menu.Clicks)
	assert.Equal(t, 1, signOut.Clicks)
	in, err = s.SignedIn(context.Background())
	require.NoError(t, err)
	assert.False(t, in)
}

func TestShowsNoResults(t *testing.T) {
	session := browsertest.NewSession()
	s := newStorefront(t, session)

	shown, err := s.ShowsNoResults(context.Background())
	require.NoError(t, err)
	assert.False(t, shown)

	session.HandleStatic(NoSearchResults(text()), browsertest.NewElement("Your search returned no results."))
	shown, err = s.ShowsNoResults(context.Background())
	require.NoError(t, err)
	assert.True(t, shown)
}

func TestOpenCart(t *testing.T) {
	session := browsertest.NewSession()
	s := newStorefront(t, session)

	require.NoError(t, s.OpenCart(context.Background()))

	assert.Equal(t, []string{"https://shop.test/checkout/cart/"}, session.Gotos)
}

func TestCartCount(t *testing.T) {
	tests := []struct {
		text     string
		expected int
		wantErr  bool
	}{
		{"3", 3, false},
		{" 12 ", 12, false},
		{"", 0, false},
		{"many", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			session := browsertest.NewSession()
			session.HandleStatic(MiniCartCounter, browsertest.NewElement(tt.text))
			s := newStorefront(t, session)

			n, err := s.CartCount(context.Background())

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, n)
		})
	}
}

func TestOpenCartFromNotification(t *testing.T) {
	session := browsertest.NewSession()
	link := browsertest.NewElement("shopping cart")
	session.HandleStatic(CartNotification, link)
	s := newStorefront(t, session)

	require.NoError(t, s.OpenCartFromNotification(context.Background()))
	assert.Equal(t, 1, link.Clicks)

	missing := newStorefront(t, browsertest.NewSession())
	assert.ErrorIs(t, missing.OpenCartFromNotification(context.Background()), browser.ErrNotFound)
}

func TestCartHasProduct(t *testing.T) {
	session := browsertest.NewSession()
	session.HandleStatic(ItemSelector(CartPageProduct, "Gin A"), browsertest.NewElement("Gin A"))
	s := newStorefront(t, session)

	found, err := s.CartHasProduct(context.Background(), "Gin A")
	require.NoError(t, err)
	assert.True(t, found)

	found, err = s.CartHasProduct(context.Background(), "Rum D")
	require.NoError(t, err)
	assert.False(t, found)
}
