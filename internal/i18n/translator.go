package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
)

//go:embed translations/*.json
var bundles embed.FS

type Language string

const (
	NL Language = "nl"
	EN Language = "en"
)

func (l Language) String() string {
	return string(l)
}

func ParseLanguage(lang string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(lang)) {
	case "nl":
		return NL, nil
	case "en":
		return EN, nil
	default:
		return "", fmt.Errorf("unsupported language: %s", lang)
	}
}

// FromAcceptLanguage picks the first supported language of an
// Accept-Language header.
func FromAcceptLanguage(header string) (Language, bool) {
	for _, part := range strings.Split(header, ",") {
		tag, _, _ := strings.Cut(strings.TrimSpace(part), ";")
		base, _, _ := strings.Cut(tag, "-")
		if lang, err := ParseLanguage(base); err == nil {
			return lang, true
		}
	}
	return "", false
}

type Translations map[string]string

type Translator struct {
	translations map[Language]Translations
	defaultLang  Language
}

func NewTranslator(defaultLang Language) *Translator {
	return &Translator{
		translations: make(map[Language]Translations),
		defaultLang:  defaultLang,
	}
}

// LoadTranslations reads the bundles compiled into the binary, one JSON file
// per language named after it.
func (i *Translator) LoadTranslations() error {
	return fs.WalkDir(bundles, "translations", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path.Ext(p) != ".json" {
			return nil
		}

		data, err := bundles.ReadFile(p)
		if err != nil {
			return err
		}

		var translations Translations
		if err := json.Unmarshal(data, &translations); err != nil {
			return fmt.Errorf("failed to decode %s: %w", p, err)
		}

		langName := strings.TrimSuffix(path.Base(p), ".json")
		lang, err := ParseLanguage(langName)
		if err != nil {
			return fmt.Errorf("failed to parse language %s: %w", langName, err)
		}

		i.translations[lang] = translations
		return nil
	})
}

func (i *Translator) T(lang Language, key string) string {
	if translations, ok := i.translations[lang]; ok {
		if translation, ok := translations[key]; ok {
			return translation
		}
	}

	// Fallback to default language
	if lang != i.defaultLang {
		if translations, ok := i.translations[i.defaultLang]; ok {
			if translation, ok := translations[key]; ok {
				return translation
			}
		}
	}

	// Return key if no translation found
	return fmt.Sprintf("[missing: %s]", key)
}

// Tf translates key and formats the result with args.
func (i *Translator) Tf(lang Language, key string, args ...any) string {
	return fmt.Sprintf(i.T(lang, key), args...)
}

func (i *Translator) Default() Language {
	return i.defaultLang
}

func (i *Translator) Supports(lang Language) bool {
	_, ok := i.translations[lang]
	return ok
}

func (i *Translator) GetAvailableLanguages() []Language {
	var langs []Language
	for lang := range i.translations {
		langs = append(langs, lang)
	}
	slices.Sort(langs)
	return langs
}
