// Package locale translates the messages shown on the console.
package locale

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Fallback is used when the system locale has no catalog.
const Fallback = "en_US"

//go:embed lang/*.yaml
var builtin embed.FS

type Locale struct {
	translations map[string]string
	locale       string
}

var (
	mu     sync.RWMutex
	global *Locale
)

// Init detects the system locale and installs it globally, falling back to
// en_US when no catalog exists for it.
func Init() error {
	code := DetectSystemLocale(os.Getenv)

	l, err := Load(code)
	if err != nil {
		if code != Fallback {
			fmt.Printf("Warning: Failed to load locale '%s', falling back to %s: %v\n", code, Fallback, err)
		}
		l, err = Load(Fallback)
		if err != nil {
			return fmt.Errorf("failed to load fallback locale %s: %w", Fallback, err)
		}
	}

	Set(l)
	return nil
}

// Set installs l as the global locale. A nil l makes T return keys.
func Set(l *Locale) {
	mu.Lock()
	global = l
	mu.Unlock()
}

// DetectSystemLocale reads LANG, LC_ALL and LC_MESSAGES in that order and
// strips the encoding suffix.
func DetectSystemLocale(getenv func(string) string) string {
	for _, key := range []string{"LANG", "LC_ALL", "LC_MESSAGES"} {
		value := getenv(key)
		if value == "" {
			continue
		}
		// "en_US.UTF-8", "de_DE@euro"
		code := strings.SplitN(value, ".", 2)[0]
		code = strings.SplitN(code, "@", 2)[0]
		if code != "" && code != "C" && code != "POSIX" {
			return code
		}
	}
	return Fallback
}

// Load returns the catalog for code. A lang/<code>.yaml file next to the
// executable takes precedence over the built-in catalogs.
func Load(code string) (*Locale, error) {
	if exe, err := os.Executable(); err == nil {
		path := filepath.Join(filepath.Dir(exe), "lang", code+".yaml")
		if data, err := os.ReadFile(path); err == nil {
			return Parse(code, data)
		}
	}

	data, err := builtin.ReadFile("lang/" + code + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("no catalog for locale %s: %w", code, err)
	}
	return Parse(code, data)
}

// Parse builds a Locale from a flat YAML map of keys to format strings.
func Parse(code string, data []byte) (*Locale, error) {
	var translations map[string]string
	if err := yaml.Unmarshal(data, &translations); err != nil {
		return nil, fmt.Errorf("failed to parse locale %s: %w", code, err)
	}
	return &Locale{translations: translations, locale: code}, nil
}

// T translates key, formatting params with fmt.Sprintf.
// Unknown keys are returned as is.
func (l *Locale) T(key string, params ...interface{}) string {
	if l == nil {
		return key
	}
	translation, ok := l.translations[key]
	if !ok {
		return key
	}
	if len(params) > 0 {
		return fmt.Sprintf(translation, params...)
	}
	return translation
}

// Has reports whether the catalog defines key.
func (l *Locale) Has(key string) bool {
	if l == nil {
		return false
	}
	_, ok := l.translations[key]
	return ok
}

// Code returns the locale code, e.g. "en_US".
func (l *Locale) Code() string {
	if l == nil {
		return Fallback
	}
	return l.locale
}

// T translates key with the global locale.
func T(key string, params ...interface{}) string {
	mu.RLock()
	l := global
	mu.RUnlock()
	return l.T(key, params...)
}

// Current returns the code of the global locale.
func Current() string {
	mu.RLock()
	defer mu.RUnlock()
	return global.Code()
}
