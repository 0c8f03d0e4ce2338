// Package i18n holds the user-facing label dictionary in Korean and English.
package i18n

import (
	_ "embed"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/a01094554781-oss/kfestival/internal/query"
)

//go:embed labels.yaml
var labelsYAML []byte

// Labels maps a label key to its text in one language.
type Labels map[string]string

var dictionary = sync.OnceValue(func() map[query.Language]Labels {
	d, err := parse(labelsYAML)
	if err != nil {
		panic(err)
	}
	return d
})

func parse(data []byte) (map[query.Language]Labels, error) {
	var raw map[query.Language]Labels
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse labels: %w", err)
	}
	ko, en := raw[query.KO], raw[query.EN]
	if len(ko) == 0 || len(en) == 0 {
		return nil, fmt.Errorf("parse labels: both KO and EN are required")
	}
	for k := range ko {
		if _, ok := en[k]; !ok {
			return nil, fmt.Errorf("parse labels: %q has no EN text", k)
		}
	}
	for k := range en {
		if _, ok := ko[k]; !ok {
			return nil, fmt.Errorf("parse labels: %q has no KO text", k)
		}
	}
	return raw, nil
}

// For returns a copy of the labels of lang. Unknown languages get Korean.
func For(lang query.Language) Labels {
	l, ok := dictionary()[lang]
	if !ok {
		l = dictionary()[query.KO]
	}
	return maps.Clone(l)
}

// Text returns the label for key in lang, or key itself if it is unknown.
func Text(lang query.Language, key string) string {
	l, ok := dictionary()[lang]
	if !ok {
		l = dictionary()[query.KO]
	}
	if s, ok := l[key]; ok {
		return s
	}
	return key
}

// Season returns the display label of s.
func Season(lang query.Language, s query.Season) string {
	return Text(lang, "season_"+strings.ToLower(string(s)))
}

// Keys returns every label key, sorted.
func Keys() []string {
	return slices.Sorted(maps.Keys(dictionary()[query.KO]))
}
