package schema

import (
	"sort"
	"strings"
)

// NormalizeHeader trims surrounding whitespace and strips carriage returns.
func NormalizeHeader(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\r", ""))
}

// Resolve returns the value of the first candidate header present in record.
// Both candidates and record keys are compared after NormalizeHeader.
// Exact matches are tried for every candidate before falling back to a
// case-insensitive pass. Returns "" when nothing matches.
func Resolve(record map[string]string, candidates ...string) string {
	key, ok := IndexHeaders(record).Match(candidates...)
	if !ok {
		return ""
	}
	return record[key]
}

// Headers indexes a record's keys by their normalized form.
type Headers struct {
	exact  map[string]string // normalized → original key
	folded map[string]string // lower(normalized) → original key
}

// IndexHeaders builds a Headers index over the keys of record.
// Keys are visited in sorted order so duplicate normalized forms resolve
// deterministically to the lexically smallest original key.
func IndexHeaders(record map[string]string) Headers {
	keys := make([]string, 0, len(record))
	for k := range record {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return IndexHeaderList(keys)
}

// IndexHeaderList builds a Headers index from an ordered header list.
func IndexHeaderList(keys []string) Headers {
	h := Headers{
		exact:  make(map[string]string, len(keys)),
		folded: make(map[string]string, len(keys)),
	}
	for _, k := range keys {
		n := NormalizeHeader(k)
		if _, ok := h.exact[n]; !ok {
			h.exact[n] = k
		}
		l := strings.ToLower(n)
		if _, ok := h.folded[l]; !ok {
			h.folded[l] = k
		}
	}
	return h
}

// Match returns the original key of the first candidate present.
func (h Headers) Match(candidates ...string) (string, bool) {
	for _, c := range candidates {
		if k, ok := h.exact[NormalizeHeader(c)]; ok {
			return k, true
		}
	}
	for _, c := range candidates {
		if k, ok := h.folded[strings.ToLower(NormalizeHeader(c))]; ok {
			return k, true
		}
	}
	return "", false
}
