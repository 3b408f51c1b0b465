// Package i18n resolves dotted message keys against embedded locale catalogs.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

// Catalog holds one flattened key table per supported language.
type Catalog struct {
	tags     []language.Tag
	tables   []map[string]string
	fallback int
	matcher  language.Matcher
}

// Load parses the embedded catalogs. defaultLang must be one of them.
func Load(defaultLang string) (*Catalog, error) {
	return loadFS(localeFS, "locales", defaultLang)
}

func loadFS(fsys fs.FS, dir, defaultLang string) (*Catalog, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read locales: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	def, err := language.Parse(defaultLang)
	if err != nil {
		return nil, fmt.Errorf("parse default language %q: %w", defaultLang, err)
	}

	c := &Catalog{fallback: -1}
	for _, name := range names {
		tag, err := language.Parse(strings.TrimSuffix(name, ".json"))
		if err != nil {
			return nil, fmt.Errorf("locale file %s: %w", name, err)
		}

		raw, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read locale %s: %w", name, err)
		}
		var tree map[string]any
		if err := json.Unmarshal(raw, &tree); err != nil {
			return nil, fmt.Errorf("decode locale %s: %w", name, err)
		}

		table := make(map[string]string)
		flatten("", tree, table)

		if tag == def {
			c.fallback = len(c.tags)
		}
		c.tags = append(c.tags, tag)
		c.tables = append(c.tables, table)
	}

	if c.fallback < 0 {
		return nil, fmt.Errorf("default language %q has no catalog", defaultLang)
	}

	// The matcher falls back to its first tag, so the default goes first.
	ordered := append([]language.Tag{c.tags[c.fallback]}, c.tags...)
	c.matcher = language.NewMatcher(ordered)

	return c, nil
}

func flatten(prefix string, node map[string]any, out map[string]string) {
	for key, value := range node {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		switch v := value.(type) {
		case string:
			out[full] = v
		case map[string]any:
			flatten(full, v, out)
		}
	}
}

// Languages lists the supported catalogs.
func (c *Catalog) Languages() []string {
	out := make([]string, 0, len(c.tags))
	for _, tag := range c.tags {
		out = append(out, tag.String())
	}
	return out
}

// Translator picks the best catalog for the given preferences (Accept-Language
// values or plain tags, most preferred first) and returns its lookup function.
// Unknown keys fall back to the default catalog and then to the key itself.
func (c *Catalog) Translator(preferences ...string) func(key string) string {
	var wanted []language.Tag
	for _, pref := range preferences {
		if strings.TrimSpace(pref) == "" {
			continue
		}
		tags, _, err := language.ParseAcceptLanguage(pref)
		if err != nil {
			continue
		}
		wanted = append(wanted, tags...)
	}

	table := c.tables[c.fallback]
	if len(wanted) > 0 {
		_, idx, conf := c.matcher.Match(wanted...)
		if conf != language.No && idx > 0 {
			table = c.tables[idx-1]
		}
	}
	fallback := c.tables[c.fallback]

	return func(key string) string {
		if text, ok := table[key]; ok {
			return text
		}
		if text, ok := fallback[key]; ok {
			return text
		}
		return key
	}
}
