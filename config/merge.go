package config

import "strings"

// mergeMaps folds src into dst, recursing into nested maps. Keys match
// case-insensitively, the way binding does, so ARC_HTTPCLIENT_TIMEOUT
// overrides httpClient.timeout from a file; the first spelling seen is
// kept. Nested maps taken from src are copied so dst never aliases a
// source's data.
func mergeMaps(dst, src map[string]any) {
	for k, v := range src {
		k = matchKey(dst, k)
		if mv, ok := v.(map[string]any); ok {
			existing, ok := dst[k].(map[string]any)
			if !ok {
				existing = map[string]any{}
				dst[k] = existing
			}
			mergeMaps(existing, mv)
			continue
		}
		dst[k] = v
	}
}

func matchKey(m map[string]any, k string) string {
	if _, ok := m[k]; ok {
		return k
	}
	for existing := range m {
		if strings.EqualFold(existing, k) {
			return existing
		}
	}
	return k
}
