// Package rodbrowser implements the browser boundary on top of go-rod.
package rodbrowser

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"go.uber.org/zap"

	"shopflow/internal/locale"
)

var (
	// ErrProfileInUse means another Chrome instance holds the profile lock.
	ErrProfileInUse = errors.New("browser already running with this profile")
	// ErrDownloadDenied means the managed Chromium could not be written to disk.
	ErrDownloadDenied = errors.New("browser download was denied access")
)

type Options struct {
	Headless       bool
	ProfilePath    string
	ViewportWidth  int
	ViewportHeight int
	// PollInterval paces every wait of the session.
	PollInterval time.Duration
	Logger       *zap.Logger
}

// Launch starts Chrome (the system install when present, a managed Chromium
// otherwise) and opens one stealth page on it.
func Launch(opts Options) (*Session, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("rod")

	fmt.Println(locale.T("browser_launching", "rod"))

	// Leakless deadlocks on Windows, see go-rod/rod#853.
	useLeakless := runtime.GOOS != "windows"

	chromePath, chromeExists := launcher.LookPath()

	l := launcher.New().
		Leakless(useLeakless).
		Headless(opts.Headless)

	// UserDataDir must be set before Bin.
	if opts.ProfilePath != "" {
		l = l.UserDataDir(opts.ProfilePath)
		logger.Debug(locale.T("browser_profile_path_set", opts.ProfilePath))
	}

	if chromeExists {
		l = l.Bin(chromePath)
		fmt.Println(locale.T("browser_using_system_chrome"))
		logger.Debug("chrome binary", zap.String("path", chromePath))
	} else {
		fmt.Println(locale.T("browser_chrome_not_found"))
	}

	if !useLeakless {
		fmt.Println(locale.T("windows_leakless_disabled"))
	}

	controlURL, err := l.Launch()
	if err != nil {
		err = launchError(err)
		printLaunchHints(err)
		return nil, err
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := stealth.Page(b)
	if err != nil {
		b.Close()
		l.Cleanup()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	if opts.ViewportWidth > 0 && opts.ViewportHeight > 0 {
		err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:             opts.ViewportWidth,
			Height:            opts.ViewportHeight,
			DeviceScaleFactor: 1,
		})
		if err != nil {
			logger.Warn("viewport not applied", zap.Error(err))
		}
	}

	fmt.Println(locale.T("browser_launched"))
	return newSession(b, page, l, opts.PollInterval, logger), nil
}

// launchError maps launcher failures onto ErrProfileInUse and
// ErrDownloadDenied.
func launchError(err error) error {
	errMsg := err.Error()
	if strings.Contains(errMsg, "Opening in existing browser session") ||
		strings.Contains(errMsg, "ProcessSingleton") ||
		strings.Contains(errMsg, "SingletonLock") {
		return fmt.Errorf("%w: %v", ErrProfileInUse, err)
	}
	if strings.Contains(errMsg, "Access is denied") || strings.Contains(errMsg, "permission denied") {
		return fmt.Errorf("%w: %v", ErrDownloadDenied, err)
	}
	return fmt.Errorf("failed to launch browser: %w", err)
}

func printLaunchHints(err error) {
	switch {
	case errors.Is(err, ErrProfileInUse):
		fmt.Println(locale.T("error_chrome_already_running_header"))
		fmt.Println(locale.T("error_chrome_fix_instructions"))
		fmt.Println(locale.T("error_chrome_close_all"))
		if runtime.GOOS == "darwin" {
			fmt.Println(locale.T("error_chrome_mac_activity_monitor"))
			fmt.Println(locale.T("error_chrome_mac_killall"))
		} else if runtime.GOOS == "windows" {
			fmt.Println(locale.T("error_chrome_windows_task_manager"))
			fmt.Println(locale.T("error_chrome_windows_end_processes"))
		}
		fmt.Println(locale.T("error_chrome_try_again"))
	case errors.Is(err, ErrDownloadDenied):
		fmt.Println(locale.T("error_browser_setup_failed", err))
	}
}
