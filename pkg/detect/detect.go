// Package detect defines the detector boundary the pipeline calls into
// and the normalization applied to raw detection results before they
// are stored.
package detect

import (
	"context"
	"sort"
	"strings"

	"github.com/tomsv/metascan/pkg/types"
)

// Detector produces a metadata record for a single image file. A nil
// error with an unsuccessful record and a non-nil error are both
// treated as a failed scan by the pipeline; neither aborts the run.
type Detector interface {
	Kind() types.Kind
	Detect(ctx context.Context, imagePath string) (types.Record, error)
}

// BaseIdentity strips the trailing disambiguation suffix from a
// recognized identity: everything after the last underscore is dropped,
// so "alice_20240101" and "alice_20240215" both collapse to "alice".
// Labels without an underscore pass through unchanged.
func BaseIdentity(label string) string {
	if i := strings.LastIndex(label, "_"); i > 0 {
		return label[:i]
	}
	return label
}

// CollapseIdentities builds the unique present-identities summary from
// raw predictions. Suffixes are stripped and duplicates removed; the
// order follows first appearance. The raw predictions keep their
// suffixed labels.
func CollapseIdentities(predictions []types.Detection) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, p := range predictions {
		id := BaseIdentity(p.Label)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// CountLabels tallies predictions per label.
func CountLabels(predictions []types.Detection) map[string]int {
	counts := map[string]int{}
	for _, p := range predictions {
		if p.Label == "" {
			continue
		}
		counts[p.Label]++
	}
	return counts
}

// UniqueLabels returns the sorted distinct labels of predictions.
func UniqueLabels(predictions []types.Detection) []string {
	counts := CountLabels(predictions)
	out := make([]string, 0, len(counts))
	for label := range counts {
		out = append(out, label)
	}
	sort.Strings(out)
	return out
}

// ClampDetections clamps every prediction's bounding box to the bounds
// of a width x height image.
func ClampDetections(predictions []types.Detection, width, height int) []types.Detection {
	out := make([]types.Detection, len(predictions))
	for i, p := range predictions {
		p.Box = p.Box.Clamp(width, height)
		out[i] = p
	}
	return out
}

// NormalizeKeywords lowercases, trims, and deduplicates keywords,
// capped at max entries. max <= 0 means unlimited.
func NormalizeKeywords(keywords []string, max int) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
		if max > 0 && len(out) == max {
			break
		}
	}
	return out
}

// TruncateDescription shortens s to at most max runes, appending an
// ellipsis when it had to cut.
func TruncateDescription(s string, max int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if max <= 0 || len(runes) <= max {
		return s
	}
	if max <= 1 {
		return string(runes[:max])
	}
	return strings.TrimSpace(string(runes[:max-1])) + "…"
}
