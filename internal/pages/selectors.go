// Package pages maps storefront concepts onto selectors and page actions.
package pages

import (
	"fmt"

	"shopflow/internal/browser"
	"shopflow/internal/config"
	"shopflow/internal/workflow"
)

// Category names a family of selectors built from a runtime item name.
type Category int

const (
	CartLineItem Category = iota
	CartRemove
	ListingProduct
	ListingAddToCart
	MenuCategory
	CartPageProduct
)

func (c Category) String() string {
	switch c {
	case CartLineItem:
		return "cart-line-item"
	case CartRemove:
		return "cart-remove"
	case ListingProduct:
		return "listing-product"
	case ListingAddToCart:
		return "listing-add-to-cart"
	case MenuCategory:
		return "menu-category"
	case CartPageProduct:
		return "cart-page-product"
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// ItemSelector returns the selector for item within category. It has no
// side effects and does not depend on any browser binding. Line items and
// listing cards are matched on the exact product name, so "Gin" never
// selects the "Ginger Beer" card.
func ItemSelector(c Category, item string) browser.Selector {
	switch c {
	case CartLineItem:
		return browser.CSS(".minicart-items-wrapper .product-item-details").Containing(browser.ExactText(item))
	case CartRemove:
		return browser.Role("link", "Remove").Within(ItemSelector(CartLineItem, item)).First()
	case ListingProduct:
		return browser.CSS(".product-item-details").Containing(browser.ExactText(item))
	case ListingAddToCart:
		return browser.Role("button", "Add to Cart").Within(ItemSelector(ListingProduct, item)).First()
	case MenuCategory:
		return browser.Role("link", item).First()
	case CartPageProduct:
		return browser.Role("cell", item).First()
	}
	return browser.Selector{}
}

// Fixed storefront selectors.
var (
	AcceptTerms   = browser.CSS(".m-accept")
	SignInLink    = browser.CSS(".authorization-link")
	AccountMenu   = browser.CSS(".customer-welcome .action.switch")
	SignOutLink   = browser.Role("link", "Sign Out")
	EmailBox      = browser.Role("textbox", "Email")
	PasswordBox   = browser.Role("textbox", "Password")
	SignInButton  = browser.Role("button", "Sign In")
	HamburgerMenu = browser.Role("tab", "")
	SearchBox     = browser.Role("combobox", "Search")
	SearchButton  = browser.Role("button", "Search")

	MiniCartLink    = browser.Role("link", "My Cart")
	MiniCartPanel   = browser.CSS(".block-minicart")
	MiniCartCounter = browser.CSS(".counter-number")
	MiniCartClose   = browser.Role("button", "Close").Within(MiniCartPanel)
	MiniCartItems   = browser.CSS(".product-item-name a").Within(MiniCartPanel)
	ConfirmOK       = browser.Role("button", "OK").Within(browser.CSS(".modal-popup.confirm"))
	AttentionOK     = browser.Role("button", "OK").Within(browser.Role("dialog", "Attention"))

	ProductLinks     = browser.CSS(".products-grid .product-item-link")
	NextPage         = browser.Role("link", "Page Next")
	AddingStatus     = browser.Role("button", "Adding...")
	AddedStatus      = browser.Role("button", "Added")
	CartNotification = browser.Role("link", "shopping cart")
)

// CartPath is the shopping cart page relative to the storefront root.
const CartPath = "/checkout/cart/"

// Selectors built from the storefront copy in the config.

func EmptyCart(text config.AppConstants) browser.Selector {
	return browser.Text(text.EmptyCart)
}

func NoSearchResults(text config.AppConstants) browser.Selector {
	return browser.Text(text.NoSearchResult)
}

func LoginError(text config.AppConstants) browser.Selector {
	return browser.Role("alert", "").Filter(text.LoginError).First()
}

// Views returns the storefront layout the workflow engine drives.
func Views(text config.AppConstants) workflow.Views {
	return workflow.Views{
		Cart: workflow.CartView{
			Items:          MiniCartItems,
			EmptyIndicator: EmptyCart(text),
			RemoveFor:      func(name string) browser.Selector { return ItemSelector(CartRemove, name) },
			ConfirmOK:      ConfirmOK,
			AttentionOK:    AttentionOK,
		},
		MiniCart: workflow.MiniCartView{
			Trigger: MiniCartLink,
			Panel:   MiniCartPanel,
			Counter: MiniCartCounter,
			Close:   MiniCartClose,
		},
		Listing: workflow.ListingView{
			Items:     ProductLinks,
			NextPage:  NextPage,
			ActionFor: func(name string) browser.Selector { return ItemSelector(ListingAddToCart, name) },
			Pending:   AddingStatus,
			Done:      AddedStatus,
		},
		Nav: workflow.NavigationView{
			MenuToggle:   HamburgerMenu,
			Category:     func(name string) browser.Selector { return ItemSelector(MenuCategory, name) },
			SearchBox:    SearchBox,
			SearchSubmit: SearchButton,
		},
	}
}
