package dataset

import (
	"strings"

	"github.com/a01094554781-oss/kfestival/internal/reftable"
)

// Translator derives a display name from an original-language festival name.
// A failing or empty translation never reaches a Record; the original name
// is used instead.
type Translator interface {
	Translate(name string) (string, error)
}

// TranslatorFunc adapts a plain function to Translator.
type TranslatorFunc func(string) (string, error)

// Translate calls f(name).
func (f TranslatorFunc) Translate(name string) (string, error) {
	return f(name)
}

// RuleTranslator is the offline translator: ordered literal substring
// replacements followed by whitespace collapsing. Unmatched text passes
// through unchanged.
type RuleTranslator struct {
	rules []reftable.NameRule
}

// NewRuleTranslator builds a translator from the given rules.
func NewRuleTranslator(rules []reftable.NameRule) *RuleTranslator {
	return &RuleTranslator{rules: append([]reftable.NameRule(nil), rules...)}
}

// Translate implements Translator. It never fails.
func (t *RuleTranslator) Translate(name string) (string, error) {
	out := name
	for _, r := range t.rules {
		out = strings.ReplaceAll(out, r.From, r.To)
	}
	return strings.Join(strings.Fields(out), " "), nil
}

// memoTranslator caches one translation per unique name within an Enrich call.
type memoTranslator struct {
	inner Translator
	cache map[string]string
}

func newMemoTranslator(inner Translator) *memoTranslator {
	return &memoTranslator{inner: inner, cache: make(map[string]string)}
}

func (m *memoTranslator) localize(name string) string {
	if v, ok := m.cache[name]; ok {
		return v
	}
	v, err := m.inner.Translate(name)
	if err != nil || strings.TrimSpace(v) == "" {
		v = name
	}
	m.cache[name] = v
	return v
}
