package i18n

import (
	"embed"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/tartampluch/friendly-reminder/internal/config"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

// Translator renders catalog messages in one language.
// It is safe for concurrent use once built.
type Translator struct {
	bundle    *i18n.Bundle
	localizer *i18n.Localizer
	lang      string

	// Languages lists the locale codes found in the embedded catalog.
	Languages []string
}

// New loads the embedded catalog and selects the best match for lang.
// Unknown or empty languages fall back to config.DefaultLanguage.
func New(lang string) *Translator {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	t := &Translator{bundle: bundle}

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		slog.Error(config.ErrLocalesAccess,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyError, err,
		)
		t.SetLanguage(lang)
		return t
	}

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "active.") || !strings.HasSuffix(name, ".json") {
			slog.Debug(config.MsgLocaleSkip,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
			)
			continue
		}

		langCode := strings.TrimSuffix(strings.TrimPrefix(name, "active."), ".json")
		if langCode == "" {
			slog.Warn(config.MsgLocaleBadName,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
			)
			continue
		}

		if _, err := bundle.LoadMessageFileFS(localeFS, "locales/"+name); err != nil {
			slog.Error(config.ErrLocaleLoad,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
				config.LogKeyError, err,
			)
			continue
		}
		t.Languages = append(t.Languages, langCode)
		slog.Debug(config.MsgLocaleLoaded,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyLang, langCode,
			config.LogKeyFile, name,
		)
	}

	t.SetLanguage(lang)
	return t
}

// SetLanguage switches the active language.
func (t *Translator) SetLanguage(lang string) {
	t.lang = t.match(lang)
	t.localizer = i18n.NewLocalizer(t.bundle, t.lang)
}

// Lang returns the active language code.
func (t *Translator) Lang() string {
	return t.lang
}

// match maps a BCP 47 tag such as "fr-CA" onto a loaded catalog language.
func (t *Translator) match(lang string) string {
	if len(t.Languages) == 0 {
		return config.DefaultLanguage
	}
	supported := make([]language.Tag, 0, len(t.Languages)+1)
	supported = append(supported, language.Make(config.DefaultLanguage))
	for _, l := range t.Languages {
		supported = append(supported, language.Make(l))
	}

	desired, _, err := language.ParseAcceptLanguage(lang)
	if err != nil || len(desired) == 0 {
		return config.DefaultLanguage
	}
	_, idx, conf := language.NewMatcher(supported).Match(desired...)
	if conf == language.No {
		return config.DefaultLanguage
	}
	base, _ := supported[idx].Base()
	return base.String()
}

// Msg translates key with optional template data.
// A missing key returns the key itself.
func (t *Translator) Msg(key string, data map[string]any) string {
	return t.localize(&i18n.LocalizeConfig{MessageID: key, TemplateData: data})
}

// Plural translates a key with plural forms for count.
// count is also exposed to the template as .Count.
func (t *Translator) Plural(key string, count int, data map[string]any) string {
	td := map[string]any{"Count": count}
	for k, v := range data {
		td[k] = v
	}
	return t.localize(&i18n.LocalizeConfig{MessageID: key, PluralCount: count, TemplateData: td})
}

func (t *Translator) localize(cfg *i18n.LocalizeConfig) string {
	if t == nil || t.localizer == nil {
		return cfg.MessageID
	}
	msg, err := t.localizer.Localize(cfg)
	if err != nil {
		slog.Debug(config.MsgTransMissing,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyKey, cfg.MessageID,
			config.LogKeyError, err,
		)
		return cfg.MessageID
	}
	return msg
}
