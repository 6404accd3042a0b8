package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"shopflow/internal/browser"
	"shopflow/internal/config"
	"shopflow/internal/locale"
	"shopflow/internal/logging"
	"shopflow/internal/pages"
	"shopflow/internal/pwbrowser"
	"shopflow/internal/rodbrowser"
	"shopflow/internal/workflow"
)

// session is what a binding hands to the CLI.
type session interface {
	browser.Session
	browser.Closer
}

// watcher is implemented by bindings that notice a closed browser window.
type watcher interface {
	Watch(ctx context.Context, every time.Duration) <-chan struct{}
}

// env is everything a command needs once the browser is up.
type env struct {
	cfg          *config.Config
	settings     workflow.Settings
	logger       *zap.Logger
	session      session
	store        *pages.Storefront
	orchestrator *workflow.Orchestrator
}

type workflowFunc func(ctx context.Context, e *env) (workflow.Outcome, error)

// launch is replaced in tests.
var launch = launchSession

func launchSession(cfg *config.Config, logger *zap.Logger) (session, error) {
	settings := cfg.Settings()
	switch cfg.Browser.Binding {
	case config.BindingPlaywright:
		s, err := pwbrowser.Launch(pwbrowser.Options{
			Headless:       cfg.Browser.Headless,
			ProfilePath:    cfg.Browser.ProfilePath,
			ViewportWidth:  cfg.Browser.ViewportWidth,
			ViewportHeight: cfg.Browser.ViewportHeight,
			PollInterval:   settings.PollInterval,
			Logger:         logger,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		s, err := rodbrowser.Launch(rodbrowser.Options{
			Headless:       cfg.Browser.Headless,
			ProfilePath:    cfg.Browser.ProfilePath,
			ViewportWidth:  cfg.Browser.ViewportWidth,
			ViewportHeight: cfg.Browser.ViewportHeight,
			PollInterval:   settings.PollInterval,
			Logger:         logger,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// loadConfig reads the config file and applies environment and flag
// overrides, in that order.
func loadConfig(c *cli.Context) (*config.Config, error) {
	path := c.String("config")
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.ApplyEnv(os.Getenv)

	if c.IsSet("headless") {
		cfg.Browser.Headless = c.Bool("headless")
	}
	if b := c.String("binding"); b != "" {
		cfg.Browser.Binding = b
	}
	if c.Bool("debug") {
		cfg.DebugMode = true
	}

	if err := cfg.Validate(); err != nil {
		fmt.Println(locale.T("config_invalid", err))
		return nil, err
	}
	fmt.Println(locale.T("config_loaded", path))
	return cfg, nil
}

func run(c *cli.Context, fn workflowFunc) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.DebugMode)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := launch(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		fmt.Println(locale.T("cleaning_up"))
		if err := s.Close(); err != nil {
			logger.Debug("close browser", zap.Error(err))
		}
		fmt.Println(locale.T("browser_destroyed"))
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if w, ok := s.(watcher); ok {
		lost := w.Watch(ctx, 2*time.Second)
		go func() {
			select {
			case <-lost:
				logger.Warn("browser closed by user")
				cancel()
			case <-ctx.Done():
			}
		}()
	}

	settings := cfg.Settings()
	e := &env{
		cfg:          cfg,
		settings:     settings,
		logger:       logger,
		session:      s,
		store:        pages.New(s, cfg.TestURL, cfg.AppConstants, settings, logger),
		orchestrator: workflow.NewOrchestrator(pages.Views(cfg.AppConstants), settings, logger),
	}

	if err := e.prepare(ctx, c.Bool("login")); err != nil {
		e.capture(uuid.NewString(), "prepare")
		return err
	}

	fmt.Println(locale.T("workflow_starting", c.Command.Name))
	out, err := fn(ctx, e)
	err = e.report(out, err)

	if cfg.Browser.KeepOpen {
		fmt.Println(locale.T("keeping_browser_open"))
		<-ctx.Done()
	}
	return err
}

// prepare opens the storefront, passes the age gate and signs in when asked.
func (e *env) prepare(ctx context.Context, login bool) error {
	fmt.Println(locale.T("opening_storefront", e.cfg.TestURL))
	accepted, err := e.store.AcceptTerms(ctx)
	if err != nil {
		return err
	}
	if accepted {
		fmt.Println(locale.T("terms_accepted"))
	} else {
		fmt.Println(locale.T("terms_already_accepted"))
	}

	if !login {
		return nil
	}
	fmt.Println(locale.T("signing_in", e.cfg.Login.Username))
	if err := e.store.SignIn(ctx, e.cfg.Login.Username, e.cfg.Login.Password); err != nil {
		return err
	}
	fmt.Println(locale.T("signed_in"))
	return nil
}

// report prints the outcome and turns anything but success into an error,
// capturing a screenshot on the way.
func (e *env) report(out workflow.Outcome, err error) error {
	runID := out.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Println(locale.T("interrupted"))
		}
		fmt.Println(locale.T("workflow_failed", err))
		e.capture(runID, out.Workflow)
		return err
	}

	switch out.Kind {
	case workflow.Success:
		fmt.Println(locale.T("outcome_success", out))
		return nil
	case workflow.NotFound:
		fmt.Println(locale.T("outcome_not_found", out))
	default:
		fmt.Println(locale.T("outcome_exhausted", out))
	}
	e.capture(runID, out.Workflow)
	return out.Err()
}

// capture saves a screenshot into the artifacts directory when the binding
// supports it. Failures are reported and otherwise ignored.
func (e *env) capture(runID, name string) {
	shooter, ok := e.session.(browser.Screenshotter)
	if !ok || e.cfg.ArtifactsDir == "" {
		return
	}
	if name == "" {
		name = "workflow"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	path, err := saveScreenshot(ctx, shooter, e.cfg.ArtifactsDir, name+"-"+runID+".png")
	if err != nil {
		fmt.Println(locale.T("screenshot_failed", err))
		return
	}
	e.logger.Info("screenshot saved", zap.String("path", path), zap.String("run", runID))
	fmt.Println(locale.T("screenshot_saved", path))
}

func saveScreenshot(ctx context.Context, shooter browser.Screenshotter, dir, file string) (string, error) {
	data, err := shooter.Screenshot(ctx)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, file)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}
