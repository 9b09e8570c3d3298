package i18n

import (
	"embed"
	"fmt"
	"log/slog"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
)

//go:embed active.*.toml
var localeFS embed.FS

var localeFiles = []string{"active.es.toml", "active.en.toml"}

// Translator renders status descriptions and error messages in the caller's language.
type Translator struct {
	bundle          *i18n.Bundle
	defaultLanguage language.Tag
}

// NewTranslator loads the embedded message files. Unknown default locales fall back to Spanish.
func NewTranslator(defaultLocale string) (*Translator, error) {
	tag, err := language.Parse(defaultLocale)
	if err != nil {
		tag = language.Spanish
	}
	bundle := i18n.NewBundle(tag)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	for _, file := range localeFiles {
		if _, err := bundle.LoadMessageFileFS(localeFS, file); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}
	}

	return &Translator{
		bundle:          bundle,
		defaultLanguage: tag,
	}, nil
}

// T renders key for an Accept-Language header value, falling back to the default
// language and finally to fallback when no message exists.
func (t *Translator) T(acceptLanguage, key, fallback string, data map[string]any) string {
	localizer := i18n.NewLocalizer(t.bundle, acceptLanguage, t.defaultLanguage.String())
	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: data,
	})
	if err != nil {
		slog.Debug("no translation", slog.String("key", key), slog.String("accept-language", acceptLanguage), slog.String("error", err.Error()))
		return fallback
	}
	return msg
}

func StatusKey(status string) string {
	return "status_" + status
}

func ErrorKey(reason string) string {
	return "error_" + reason
}
