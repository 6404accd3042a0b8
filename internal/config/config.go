package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"shopflow/internal/workflow"
)

// Bindings a run can use.
const (
	BindingRod        = "rod"
	BindingPlaywright = "playwright"
)

// Environment variables that override the file.
const (
	EnvTestURL  = "SHOPFLOW_TEST_URL"
	EnvUsername = "SHOPFLOW_USERNAME"
	EnvPassword = "SHOPFLOW_PASSWORD"
	EnvBinding  = "SHOPFLOW_BINDING"
	EnvHeadless = "SHOPFLOW_HEADLESS"
)

type Config struct {
	TestURL string `yaml:"test_url"`

	Login        LoginConfig    `yaml:"login"`
	Product      ProductConfig  `yaml:"product"`
	AppConstants AppConstants   `yaml:"app_constants"`
	Browser      BrowserConfig  `yaml:"browser"`
	Timeouts     TimeoutConfig  `yaml:"timeouts"`
	Workflow     WorkflowConfig `yaml:"workflow"`

	ArtifactsDir string `yaml:"artifacts_dir"`
	DebugMode    bool   `yaml:"debug_mode"`
}

type LoginConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	// InvalidUsername and InvalidPassword are credentials the storefront
	// must reject.
	InvalidUsername string `yaml:"invalid_username"`
	InvalidPassword string `yaml:"invalid_password"`
}

type ProductConfig struct {
	ItemName        string `yaml:"item_name"`
	ItemCategory    string `yaml:"item_category"`
	SearchQuery     string `yaml:"search_query"`
	InvalidItemName string `yaml:"invalid_item_name"`
}

// AppConstants is storefront copy the scenarios assert against.
type AppConstants struct {
	NoSearchResult string `yaml:"no_search_result"`
	EmptyCart      string `yaml:"empty_cart"`
	LoginError     string `yaml:"login_error"`
}

type BrowserConfig struct {
	Binding        string `yaml:"binding"`
	Headless       bool   `yaml:"headless"`
	ProfilePath    string `yaml:"profile_path"`
	ViewportWidth  int    `yaml:"viewport_width"`
	ViewportHeight int    `yaml:"viewport_height"`
	KeepOpen       bool   `yaml:"keep_open"`
}

// TimeoutConfig holds every wait bound in milliseconds.
type TimeoutConfig struct {
	DefaultMs    int `yaml:"default_ms"`
	ActionMs     int `yaml:"action_ms"`
	ScanMs       int `yaml:"scan_ms"`
	ConfirmMs    int `yaml:"confirm_ms"`
	DetachMs     int `yaml:"detach_ms"`
	AttentionMs  int `yaml:"attention_ms"`
	CounterMs    int `yaml:"counter_ms"`
	PanelMs      int `yaml:"panel_ms"`
	ListingMs    int `yaml:"listing_ms"`
	NextPageMs   int `yaml:"next_page_ms"`
	TransitionMs int `yaml:"transition_ms"`
	StatusMs     int `yaml:"status_ms"`
	LoadMs       int `yaml:"load_ms"`
}

type WorkflowConfig struct {
	RetrySlack     int `yaml:"retry_slack"`
	ActionAttempts int `yaml:"action_attempts"`
	PollIntervalMs int `yaml:"poll_interval_ms"`
	TypeDelayMs    int `yaml:"type_delay_ms"`
	RetryPauseMs   int `yaml:"retry_pause_ms"`
}

// DataDir is where profiles and artifacts live by default.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./shopflow-data"
	}
	return filepath.Join(home, ".shopflow")
}

func DefaultConfig() *Config {
	dataDir := DataDir()
	ms := func(d time.Duration) int { return int(d / time.Millisecond) }
	s := workflow.DefaultSettings()

	return &Config{
		TestURL: "https://www.example-liquor.test/",
		Login: LoginConfig{
			InvalidUsername: "nobody@example.invalid",
			InvalidPassword: "not-the-password",
		},
		Product: ProductConfig{
			ItemName:        "Tito's Handmade Vodka",
			ItemCategory:    "LIQUOR",
			SearchQuery:     "vodka",
			InvalidItemName: "No Such Bottle 0000",
		},
		AppConstants: AppConstants{
			NoSearchResult: "Your search returned no results.",
			EmptyCart:      "You have no items in your shopping cart.",
			LoginError:     "The account sign-in was incorrect",
		},
		Browser: BrowserConfig{
			Binding:        BindingRod,
			Headless:       false,
			ProfilePath:    filepath.Join(dataDir, "browser-profile"),
			ViewportWidth:  1920,
			ViewportHeight: 1080,
			KeepOpen:       false,
		},
		Timeouts: TimeoutConfig{
			DefaultMs:    ms(s.DefaultTimeout),
			ActionMs:     ms(s.ActionTimeout),
			ScanMs:       ms(s.ScanTimeout),
			ConfirmMs:    ms(s.ConfirmTimeout),
			DetachMs:     ms(s.DetachTimeout),
			AttentionMs:  ms(s.AttentionTimeout),
			CounterMs:    ms(s.CounterTimeout),
			PanelMs:      ms(s.PanelTimeout),
			ListingMs:    ms(s.ListingTimeout),
			NextPageMs:   ms(s.NextPageTimeout),
			TransitionMs: ms(s.TransitionTimeout),
			StatusMs:     ms(s.StatusTimeout),
			LoadMs:       ms(s.LoadTimeout),
		},
		Workflow: WorkflowConfig{
			RetrySlack:     s.RetrySlack,
			ActionAttempts: s.ActionAttempts,
			PollIntervalMs: ms(s.PollInterval),
			TypeDelayMs:    ms(s.TypeDelay),
			RetryPauseMs:   ms(s.RetryPause),
		},
		ArtifactsDir: filepath.Join(dataDir, "artifacts"),
		DebugMode:    false,
	}
}

// LoadConfig reads path, writing the defaults there first when it does not
// exist yet.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := config.Save(path); err != nil {
			return nil, err
		}
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if config.Browser.ProfilePath != "" {
		if err := os.MkdirAll(config.Browser.ProfilePath, 0755); err != nil {
			return nil, err
		}
	}

	return config, nil
}

func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}

// LoadDotEnv loads .env style files into the process environment. Missing
// files are skipped; variables already set are kept.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides file values with non-empty environment values. Pass
// os.Getenv in production.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvTestURL); v != "" {
		c.TestURL = v
	}
	if v := getenv(EnvUsername); v != "" {
		c.Login.Username = v
	}
	if v := getenv(EnvPassword); v != "" {
		c.Login.Password = v
	}
	if v := getenv(EnvBinding); v != "" {
		c.Browser.Binding = strings.ToLower(v)
	}
	switch strings.ToLower(getenv(EnvHeadless)) {
	case "1", "true", "yes":
		c.Browser.Headless = true
	case "0", "false", "no":
		c.Browser.Headless = false
	}
}

// Validate rejects configurations a run cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.TestURL == "" {
		errs = append(errs, errors.New("test_url is required"))
	}
	switch c.Browser.Binding {
	case BindingRod, BindingPlaywright:
	default:
		errs = append(errs, fmt.Errorf("browser.binding %q: want %s or %s", c.Browser.Binding, BindingRod, BindingPlaywright))
	}
	for _, t := range []struct {
		name string
		ms   int
	}{
		{"timeouts.scan_ms", c.Timeouts.ScanMs},
		{"timeouts.detach_ms", c.Timeouts.DetachMs},
		{"timeouts.transition_ms", c.Timeouts.TransitionMs},
		{"timeouts.load_ms", c.Timeouts.LoadMs},
	} {
		if t.ms <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", t.name))
		}
	}
	if c.AppConstants.EmptyCart == "" {
		errs = append(errs, errors.New("app_constants.empty_cart is required"))
	}
	if c.Workflow.RetrySlack < 0 {
		errs = append(errs, errors.New("workflow.retry_slack must not be negative"))
	}
	return errors.Join(errs...)
}

// Settings converts the file values into workflow settings. Zero values fall
// back to the workflow defaults.
func (c *Config) Settings() workflow.Settings {
	s := workflow.DefaultSettings()
	set := func(dst *time.Duration, ms int) {
		if ms > 0 {
			*dst = time.Duration(ms) * time.Millisecond
		}
	}
	t := c.Timeouts
	set(&s.DefaultTimeout, t.DefaultMs)
	set(&s.ActionTimeout, t.ActionMs)
	set(&s.ScanTimeout, t.ScanMs)
	set(&s.ConfirmTimeout, t.ConfirmMs)
	set(&s.DetachTimeout, t.DetachMs)
	set(&s.AttentionTimeout, t.AttentionMs)
	set(&s.CounterTimeout, t.CounterMs)
	set(&s.PanelTimeout, t.PanelMs)
	set(&s.ListingTimeout, t.ListingMs)
	set(&s.NextPageTimeout, t.NextPageMs)
	set(&s.TransitionTimeout, t.TransitionMs)
	set(&s.StatusTimeout, t.StatusMs)
	set(&s.LoadTimeout, t.LoadMs)
	set(&s.PollInterval, c.Workflow.PollIntervalMs)
	set(&s.TypeDelay, c.Workflow.TypeDelayMs)
	set(&s.RetryPause, c.Workflow.RetryPauseMs)

	if c.Workflow.RetrySlack >= 0 {
		s.RetrySlack = c.Workflow.RetrySlack
	}
	if c.Workflow.ActionAttempts > 0 {
		s.ActionAttempts = c.Workflow.ActionAttempts
	}
	return s
}
