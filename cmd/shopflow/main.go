package main

import (
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"shopflow/internal/config"
	"shopflow/internal/locale"
)

var version = "0.1.0"

func main() {
	if err := locale.Init(); err != nil {
		log.Printf("Warning: Locale initialization failed, using default English: %v", err)
	}

	// Variables already set in the environment win over .env.
	if err := config.LoadDotEnv(); err != nil {
		log.Printf("Warning: %v", err)
	}

	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "shopflow",
		Usage:   "Run storefront cart and search workflows in a real browser",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "config.yaml",
				Usage:   "Path to configuration file",
			},
			&cli.BoolFlag{Name: "debug", Usage: "Enable detailed debug logging"},
			&cli.BoolFlag{Name: "headless", Usage: "Run the browser without a window"},
			&cli.StringFlag{Name: "binding", Usage: "Browser binding: rod or playwright"},
			&cli.BoolFlag{Name: "login", Usage: "Sign in with the configured account before the workflow"},
		},
		Commands: []*cli.Command{
			ClearCartCommand(),
			FindAndAddCommand(),
			AddFromCategoryCommand(),
			AddFromSearchCommand(),
		},
	}
}
