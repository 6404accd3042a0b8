package locale

import (
	"testing"
)

func TestDetectSystemLocale(t *testing.T) {
	testCases := []struct {
		name           string
		env            map[string]string
		expectedLocale string
	}{
		{
			name:           "English US locale from LANG",
			env:            map[string]string{"LANG": "en_US.UTF-8"},
			expectedLocale: "en_US",
		},
		{
			name:           "Russian locale from LANG",
			env:            map[string]string{"LANG": "ru_RU.UTF-8"},
			expectedLocale: "ru_RU",
		},
		{
			name:           "LANG takes precedence over LC_ALL",
			env:            map[string]string{"LANG": "en_US.UTF-8", "LC_ALL": "ru_RU.UTF-8"},
			expectedLocale: "en_US",
		},
		{
			name:           "LC_ALL used when LANG is empty",
			env:            map[string]string{"LC_ALL": "ru_RU.UTF-8"},
			expectedLocale: "ru_RU",
		},
		{
			name:           "LC_MESSAGES used last",
			env:            map[string]string{"LC_MESSAGES": "de_DE@euro"},
			expectedLocale: "de_DE",
		},
		{
			name:           "POSIX locale is skipped",
			env:            map[string]string{"LANG": "C.UTF-8", "LC_ALL": "fr_FR.UTF-8"},
			expectedLocale: "fr_FR",
		},
		{
			name:           "Fallback to en_US when empty",
			env:            map[string]string{},
			expectedLocale: "en_US",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			detected := DetectSystemLocale(func(k string) string { return tc.env[k] })
			if detected != tc.expectedLocale {
				t.Errorf("Expected locale '%s', got '%s'", tc.expectedLocale, detected)
			}
		})
	}
}

func TestLoadBuiltinLocale(t *testing.T) {
	l, err := Load("en_US")
	if err != nil {
		t.Fatalf("Failed to load en_US: %v", err)
	}
	if l.Code() != "en_US" {
		t.Errorf("Expected locale 'en_US', got '%s'", l.Code())
	}
	if got := l.T("browser_using_system_chrome"); got != "✓ Using system Chrome browser" {
		t.Errorf("Unexpected translation: '%s'", got)
	}
}

func TestLoadUnknownLocale(t *testing.T) {
	if _, err := Load("xx_XX"); err == nil {
		t.Error("Expected error for a locale without catalog")
	}
}

func TestParseInvalidCatalog(t *testing.T) {
	if _, err := Parse("bad", []byte("key: [unclosed")); err == nil {
		t.Error("Expected error for invalid YAML")
	}
}

func TestTranslationFunction(t *testing.T) {
	testLocale, err := Parse("test", []byte(`
simple_key: "Simple Translation"
key_with_param: "Hello, %s!"
key_with_two_params: "User %s has %d messages"
`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	original := global
	Set(testLocale)
	defer Set(original)

	testCases := []struct {
		name           string
		key            string
		params         []interface{}
		expectedOutput string
	}{
		{"Simple translation", "simple_key", nil, "Simple Translation"},
		{"Translation with one parameter", "key_with_param", []interface{}{"World"}, "Hello, World!"},
		{"Translation with two parameters", "key_with_two_params", []interface{}{"Alice", 5}, "User Alice has 5 messages"},
		{"Missing key returns key itself", "nonexistent_key", nil, "nonexistent_key"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := T(tc.key, tc.params...)
			if result != tc.expectedOutput {
				t.Errorf("Expected '%s', got '%s'", tc.expectedOutput, result)
			}
		})
	}

	if Current() != "test" {
		t.Errorf("Expected current locale 'test', got '%s'", Current())
	}
}

func TestTranslationWithNilGlobalLocale(t *testing.T) {
	original := global
	Set(nil)
	defer Set(original)

	if result := T("test_key"); result != "test_key" {
		t.Errorf("Expected T() to return key when no locale is set, got '%s'", result)
	}
	if Current() != Fallback {
		t.Errorf("Expected '%s' when no locale is set, got '%s'", Fallback, Current())
	}
}

func TestLocalizationKeysExist(t *testing.T) {
	requiredKeys := []string{
		"config_loaded",
		"config_invalid",
		"browser_launching",
		"browser_launched",
		"browser_using_system_chrome",
		"browser_chrome_not_found",
		"browser_profile_path_set",
		"windows_leakless_disabled",
		"error_chrome_already_running_header",
		"error_chrome_fix_instructions",
		"error_chrome_close_all",
		"error_chrome_mac_activity_monitor",
		"error_chrome_mac_killall",
		"error_chrome_windows_task_manager",
		"error_chrome_windows_end_processes",
		"error_chrome_try_again",
		"error_chrome_already_running",
		"error_browser_setup_failed",
		"opening_storefront",
		"terms_accepted",
		"terms_already_accepted",
		"signing_in",
		"signed_in",
		"workflow_starting",
		"outcome_success",
		"outcome_not_found",
		"outcome_exhausted",
		"workflow_failed",
		"screenshot_saved",
		"screenshot_failed",
		"cleaning_up",
		"browser_destroyed",
		"keeping_browser_open",
		"interrupted",
	}

	l, err := Load(Fallback)
	if err != nil {
		t.Fatalf("Failed to load %s: %v", Fallback, err)
	}
	for _, key := range requiredKeys {
		if !l.Has(key) {
			t.Errorf("Key %q missing from %s catalog", key, Fallback)
		}
	}
}
