package schema

import (
	"fmt"
	"maps"
)

// Expand splits a series envelope carrying nested chapters into the series
// itself and one chapter envelope per nested element. The parent slug is
// injected into each chapter unless it names its own parent. Other kinds are
// returned unchanged with no children.
func Expand(env Envelope, kind Kind) (Envelope, []Envelope) {
	if kind != KindSeries || env.Raw == nil {
		return env, nil
	}

	nested, key := first(env.Raw, nestedChapterKeys)
	list, ok := nested.([]any)
	if !ok {
		return env, nil
	}

	series := env
	series.Raw = maps.Clone(env.Raw)
	delete(series.Raw, key)

	slug := seriesSlug(env.Raw)
	children := make([]Envelope, 0, len(list))
	for i, item := range list {
		raw, ok := item.(map[string]any)
		if !ok {
			raw = nil
		} else {
			raw = maps.Clone(raw)
			if p, _ := first(raw, parentKeys); p == nil && slug != "" {
				raw["series_slug"] = slug
			}
		}
		children = append(children, Envelope{
			Raw:   raw,
			File:  env.File,
			Index: env.Index,
			Path:  fmt.Sprintf("%s[%d]", key, i),
		})
	}
	return series, children
}
