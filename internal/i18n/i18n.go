// internal/i18n/i18n.go
package i18n

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

const fallbackLang = "en"

// I18n holds one flat key -> message catalogue per language.
type I18n struct {
	mu           sync.RWMutex
	translations map[string]map[string]string
	defaultLang  string
}

var instance *I18n
var once sync.Once

func Initialize(localesPath, defaultLang string) error {
	var err error
	once.Do(func() {
		if defaultLang == "" {
			defaultLang = fallbackLang
		}
		instance = &I18n{
			translations: make(map[string]map[string]string),
			defaultLang:  defaultLang,
		}
		err = instance.LoadTranslations(localesPath)
	})
	return err
}

// LoadTranslations reads every <lang>.json catalogue in localesPath. The
// default language's catalogue must be among them.
func (i *I18n) LoadTranslations(localesPath string) error {
	files, err := filepath.Glob(filepath.Join(localesPath, "*.json"))
	if err != nil {
		return fmt.Errorf("failed to list locales in %s: %w", localesPath, err)
	}

	loaded := make(map[string]map[string]string, len(files))
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read locale file %s: %w", path, err)
		}

		var catalogue map[string]string
		if err := json.Unmarshal(data, &catalogue); err != nil {
			return fmt.Errorf("failed to unmarshal locale file %s: %w", path, err)
		}
		loaded[strings.TrimSuffix(filepath.Base(path), ".json")] = catalogue
	}

	if _, ok := loaded[i.defaultLang]; !ok {
		return fmt.Errorf("no %s.json catalogue in %s", i.defaultLang, localesPath)
	}

	i.mu.Lock()
	for lang, catalogue := range loaded {
		i.translations[lang] = catalogue
	}
	i.mu.Unlock()
	return nil
}

func (i *I18n) lookup(lang, key string) (string, bool) {
	text, ok := i.translations[lang][key]
	return text, ok
}

// T formats key in lang, falling back to the default language and then to
// the key itself.
func (i *I18n) T(lang, key string, args ...interface{}) string {
	i.mu.RLock()
	text, ok := i.lookup(lang, key)
	if !ok {
		text, ok = i.lookup(i.defaultLang, key)
	}
	i.mu.RUnlock()

	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(text, args...)
	}
	return text
}

func T(lang, key string, args ...interface{}) string {
	if instance != nil {
		return instance.T(lang, key, args...)
	}
	return key
}

// DefaultLanguage is the catalogue used when a request names none we ship.
func DefaultLanguage() string {
	if instance == nil {
		return fallbackLang
	}
	return instance.defaultLang
}

// GetSupportedLanguages lists the loaded catalogues in sorted order.
func GetSupportedLanguages() []string {
	if instance == nil {
		return []string{fallbackLang}
	}

	instance.mu.RLock()
	defer instance.mu.RUnlock()

	langs := make([]string, 0, len(instance.translations))
	for lang := range instance.translations {
		langs = append(langs, lang)
	}
	slices.Sort(langs)
	return langs
}
