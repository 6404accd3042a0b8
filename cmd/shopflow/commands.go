package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"shopflow/internal/browser"
	"shopflow/internal/workflow"
)

func productFlag() cli.Flag {
	return &cli.StringFlag{Name: "product", Aliases: []string{"p"}, Usage: "Product name to add (defaults to product.item_name)"}
}

func product(c *cli.Context, e *env) string {
	if p := c.String("product"); p != "" {
		return p
	}
	return e.cfg.Product.ItemName
}

// ClearCartCommand returns the clear-cart command
func ClearCartCommand() *cli.Command {
	return &cli.Command{
		Name:  "clear-cart",
		Usage: "Remove every item from the mini cart",
		Action: func(c *cli.Context) error {
			return run(c, func(ctx context.Context, e *env) (workflow.Outcome, error) {
				return e.orchestrator.ClearCart(ctx, e.session)
			})
		},
	}
}

// FindAndAddCommand returns the find-and-add command
func FindAndAddCommand() *cli.Command {
	return &cli.Command{
		Name:  "find-and-add",
		Usage: "Page through a product listing and add a product to the cart",
		Flags: []cli.Flag{
			productFlag(),
			&cli.StringFlag{Name: "url", Usage: "Listing URL to open first, relative to test_url"},
		},
		Action: func(c *cli.Context) error {
			return run(c, func(ctx context.Context, e *env) (workflow.Outcome, error) {
				if u := c.String("url"); u != "" {
					target := browser.ResolveURL(e.cfg.TestURL, u)
					if err := e.session.Goto(ctx, target, e.settings.LoadTimeout); err != nil {
						return workflow.Outcome{Workflow: "find-and-add"}, fmt.Errorf("open %s: %w", target, err)
					}
				}
				return e.orchestrator.FindAndAdd(ctx, e.session, product(c, e))
			})
		},
	}
}

// AddFromCategoryCommand returns the add-from-category command
func AddFromCategoryCommand() *cli.Command {
	return &cli.Command{
		Name:  "add-from-category",
		Usage: "Open a category from the menu and add a product from it",
		Flags: []cli.Flag{
			productFlag(),
			&cli.StringFlag{Name: "category", Usage: "Menu category (defaults to product.item_category)"},
		},
		Action: func(c *cli.Context) error {
			return run(c, func(ctx context.Context, e *env) (workflow.Outcome, error) {
				category := c.String("category")
				if category == "" {
					category = e.cfg.Product.ItemCategory
				}
				return e.orchestrator.AddFromCategory(ctx, e.session, category, product(c, e))
			})
		},
	}
}

// AddFromSearchCommand returns the add-from-search command
func AddFromSearchCommand() *cli.Command {
	return &cli.Command{
		Name:  "add-from-search",
		Usage: "Search the storefront and add a product from the results",
		Flags: []cli.Flag{
			productFlag(),
			&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Search text (defaults to product.search_query)"},
		},
		Action: func(c *cli.Context) error {
			return run(c, func(ctx context.Context, e *env) (workflow.Outcome, error) {
				query := c.String("query")
				if query == "" {
					query = e.cfg.Product.SearchQuery
				}
				return e.orchestrator.AddFromSearch(ctx, e.session, query, product(c, e))
			})
		},
	}
}
