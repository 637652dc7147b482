package i18n

import (
	"context"
	"embed"
	"fmt"
	"path"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var locales embed.FS

type languageKey struct{}

// Translator resolves dotted message keys against the embedded catalogs.
type Translator struct {
	catalogs  map[language.Tag]map[string]string
	supported []language.Tag
	matcher   language.Matcher
}

// New loads every catalog under locales/. English is the fallback language.
func New() (*Translator, error) {
	entries, err := locales.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("read locales: %w", err)
	}

	t := &Translator{
		catalogs:  make(map[language.Tag]map[string]string),
		supported: []language.Tag{language.English},
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || path.Ext(name) != ".yaml" {
			continue
		}
		tag, err := language.Parse(strings.TrimSuffix(name, ".yaml"))
		if err != nil {
			return nil, fmt.Errorf("locale %s: %w", name, err)
		}
		raw, err := locales.ReadFile("locales/" + name)
		if err != nil {
			return nil, err
		}
		var tree map[string]any
		if err := yaml.Unmarshal(raw, &tree); err != nil {
			return nil, fmt.Errorf("parse locale %s: %w", name, err)
		}
		catalog := make(map[string]string)
		flatten("", tree, catalog)
		t.catalogs[tag] = catalog
		if tag != language.English {
			t.supported = append(t.supported, tag)
		}
	}

	if _, ok := t.catalogs[language.English]; !ok {
		return nil, fmt.Errorf("missing english catalog")
	}
	t.matcher = language.NewMatcher(t.supported)
	return t, nil
}

func flatten(prefix string, node map[string]any, out map[string]string) {
	for key, value := range node {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		switch v := value.(type) {
		case map[string]any:
			flatten(full, v, out)
		case string:
			out[full] = v
		default:
			out[full] = fmt.Sprint(v)
		}
	}
}

// Match negotiates the best supported language for an Accept-Language header.
func (t *Translator) Match(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return language.English
	}
	_, index, _ := t.matcher.Match(tags...)
	return t.supported[index]
}

// Translate renders key in the language stored on ctx. Unknown keys are returned as is.
func (t *Translator) Translate(ctx context.Context, key string, args map[string]string) string {
	lang := LanguageFromContext(ctx)
	message, ok := t.catalogs[lang][key]
	if !ok {
		message, ok = t.catalogs[language.English][key]
	}
	if !ok {
		return key
	}
	if len(args) == 0 {
		return message
	}

	pairs := make([]string, 0, len(args)*2)
	for name, value := range args {
		pairs = append(pairs, "{{"+name+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(message)
}

// WithLanguage stores the negotiated language on the context.
func WithLanguage(ctx context.Context, tag language.Tag) context.Context {
	return context.WithValue(ctx, languageKey{}, tag)
}

// LanguageFromContext returns the negotiated language, defaulting to English.
func LanguageFromContext(ctx context.Context) language.Tag {
	if tag, ok := ctx.Value(languageKey{}).(language.Tag); ok {
		return tag
	}
	return language.English
}
