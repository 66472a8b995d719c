package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tomsv/metascan/pkg/types"
)

func TestBaseIdentity(t *testing.T) {
	tests := []struct {
		label string
		want  string
	}{
		{"alice_20240101", "alice"},
		{"alice_smith_20240101", "alice_smith"},
		{"bob", "bob"},
		{"_leading", "_leading"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, BaseIdentity(tt.label), "label %q", tt.label)
	}
}

func TestCollapseIdentities(t *testing.T) {
	predictions := []types.Detection{
		{Label: "alice_20240101"},
		{Label: "bob_20231501"},
		{Label: "alice_20240215"},
		{Label: ""},
	}

	assert.Equal(t, []string{"alice", "bob"}, CollapseIdentities(predictions))
	// raw predictions keep their suffixes
	assert.Equal(t, "alice_20240101", predictions[0].Label)
}

func TestCountLabels(t *testing.T) {
	predictions := []types.Detection{
		{Label: "person"},
		{Label: "person"},
		{Label: "dog"},
	}

	assert.Equal(t, map[string]int{"person": 2, "dog": 1}, CountLabels(predictions))
	assert.Equal(t, []string{"dog", "person"}, UniqueLabels(predictions))
}

func TestClampDetections(t *testing.T) {
	predictions := []types.Detection{
		{Box: types.BoundingBox{XMin: 10, YMin: 10, XMax: 500, YMax: 40}, Label: "person"},
	}

	clamped := ClampDetections(predictions, 100, 80)
	assert.Equal(t, 100, clamped[0].Box.XMax)
	assert.Greater(t, clamped[0].Box.XMax, clamped[0].Box.XMin)
	// input slice untouched
	assert.Equal(t, 500, predictions[0].Box.XMax)
}

func TestNormalizeKeywords(t *testing.T) {
	in := []string{" Beach ", "beach", "SUNSET", "", "sea", "sand", "sky"}

	assert.Equal(t, []string{"beach", "sunset", "sea"}, NormalizeKeywords(in, 3))
	assert.Equal(t, []string{"beach", "sunset", "sea", "sand", "sky"}, NormalizeKeywords(in, 0))
}

func TestTruncateDescription(t *testing.T) {
	assert.Equal(t, "short", TruncateDescription("short", 80))
	assert.Equal(t, "short", TruncateDescription("  short  ", 80))

	long := "a photograph of a very long scene that keeps going and going well past the cap"
	got := TruncateDescription(long, 40)
	assert.LessOrEqual(t, len([]rune(got)), 40)
	assert.Contains(t, got, "…")
}
