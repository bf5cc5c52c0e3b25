// Package legacy maps legacy load directives onto skill package slugs.
package legacy

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/skillgate/internal/apperr"
)

const (
	productKey   = "product_mappings"
	wildcardKey  = "wildcards"
	codeSuffix   = "_mappings"
	loadPrefix   = "@load"
	productScope = "product"
)

// Mapping is one entry of the mappings file. Either field may name skills;
// a skill path reduces to its first segment.
type Mapping struct {
	Skills []string `yaml:"skills"`
	Skill  string   `yaml:"skill"`
}

func (m Mapping) slugs() []string {
	var out []string
	for _, s := range append(append([]string{}, m.Skills...), m.Skill) {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		slug, _, _ := strings.Cut(s, "/")
		out = append(out, slug)
	}
	return out
}

// Table is a parsed mappings file.
type Table struct {
	products  map[string]Mapping
	codes     map[string]map[string]Mapping // lower-cased code -> value
	wildcards map[string]Mapping
}

// Load reads a mappings file.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("legacy: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes mappings YAML. Top-level keys other than the product,
// wildcard and <code>_mappings tables are ignored.
func Parse(data []byte) (*Table, error) {
	var raw map[string]yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("legacy: parse mappings: %w", err)
	}

	t := &Table{
		products:  map[string]Mapping{},
		codes:     map[string]map[string]Mapping{},
		wildcards: map[string]Mapping{},
	}
	for key, node := range raw {
		isCode := strings.HasSuffix(key, codeSuffix) && key != productKey
		if key != productKey && key != wildcardKey && !isCode {
			continue
		}
		var m map[string]Mapping
		if err := node.Decode(&m); err != nil {
			return nil, fmt.Errorf("legacy: decode %s: %w", key, err)
		}
		switch {
		case key == productKey:
			t.products = m
		case key == wildcardKey:
			t.wildcards = m
		default:
			t.codes[strings.ToLower(strings.TrimSuffix(key, codeSuffix))] = m
		}
	}
	return t, nil
}

// Resolve maps identifier to sorted, de-duplicated package slugs.
// Identifiers look like "product:api", "CS:python", "SEC:*", optionally
// prefixed by "@load" and combined as "[a + b]". Every component of a
// combination must map; otherwise the result is empty and the error wraps
// apperr.ErrNoMapping. There is no partial or fuzzy matching.
func (t *Table) Resolve(identifier string) ([]string, error) {
	s := strings.TrimSpace(identifier)
	s = strings.TrimSpace(strings.TrimPrefix(s, loadPrefix))
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		s = s[1 : len(s)-1]
	}

	seen := map[string]bool{}
	var out []string
	for _, part := range strings.Split(s, "+") {
		part = strings.TrimSpace(part)
		slugs := t.component(part)
		if len(slugs) == 0 {
			return nil, fmt.Errorf("legacy: %q: %w", part, apperr.ErrNoMapping)
		}
		for _, slug := range slugs {
			if !seen[slug] {
				seen[slug] = true
				out = append(out, slug)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

func (t *Table) component(id string) []string {
	scope, value, ok := strings.Cut(id, ":")
	if !ok || scope == "" || value == "" {
		return nil
	}
	if scope == productScope {
		return t.products[value].slugs()
	}
	if value == "*" {
		return t.wildcards[id].slugs()
	}
	return t.codes[strings.ToLower(scope)][value].slugs()
}
