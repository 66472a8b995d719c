package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordValidityPerKind(t *testing.T) {
	tests := []struct {
		name  string
		rec   Record
		valid bool
	}{
		{
			name:  "description with keywords",
			rec:   &DescriptionRecord{Success: true, Keywords: []string{"beach"}},
			valid: true,
		},
		{
			name:  "description with caption only",
			rec:   &DescriptionRecord{Success: true, ShortDescription: "a beach at dusk"},
			valid: true,
		},
		{
			name:  "description success but empty payload is sentinel",
			rec:   &DescriptionRecord{Success: true},
			valid: false,
		},
		{
			name:  "faces with zero faces still valid",
			rec:   &FacesRecord{Success: true, Count: 0},
			valid: true,
		},
		{
			name:  "faces without success flag invalid",
			rec:   &FacesRecord{Count: 2, Faces: []string{"alice"}},
			valid: false,
		},
		{
			name:  "objects requires strict success",
			rec:   &ObjectsRecord{Predictions: nil},
			valid: false,
		},
		{
			name:  "objects with success valid",
			rec:   &ObjectsRecord{Success: true},
			valid: true,
		},
		{
			name:  "scenes unknown without success still skippable",
			rec:   &ScenesRecord{Success: false, Scene: SceneUnknown},
			valid: true,
		},
		{
			name:  "scenes empty scene invalid",
			rec:   &ScenesRecord{Success: false},
			valid: false,
		},
		{
			name:  "exif needs at least one tag",
			rec:   &ExifRecord{Success: true, Count: 0},
			valid: false,
		},
		{
			name:  "exif with tags valid",
			rec:   &ExifRecord{Success: true, Count: 3, Tags: map[string]string{"Make": "Canon"}},
			valid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.rec.Valid())
		})
	}
}

func TestNewFailure(t *testing.T) {
	for _, kind := range Kinds() {
		rec := NewFailure(kind, "boom")
		require.NotNil(t, rec, "kind %s", kind)
		assert.Equal(t, kind, rec.RecordKind())
		assert.False(t, rec.Succeeded())
		assert.Equal(t, "boom", rec.FailureMessage())
	}

	// scenes failure carries the unknown label, which makes it count
	// as a completed scan
	scenes := NewFailure(KindScenes, "service down").(*ScenesRecord)
	assert.Equal(t, SceneUnknown, scenes.Scene)
	assert.True(t, scenes.Valid())
}

func TestNewPlaceholder(t *testing.T) {
	for _, kind := range Kinds() {
		rec := NewPlaceholder(kind)
		require.NotNil(t, rec, "kind %s", kind)
		assert.False(t, rec.Succeeded())
		assert.False(t, rec.Valid(), "placeholder for %s must stay retryable", kind)
		assert.Equal(t, PlaceholderError, rec.FailureMessage())
	}
}

func TestNewRecordUnknownKind(t *testing.T) {
	assert.Nil(t, NewRecord(Kind("bogus")))
	assert.Nil(t, NewFailure(Kind("bogus"), "x"))
}
