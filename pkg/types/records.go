package types

import "strings"

// Record is one sidecar metadata entry for a (file, kind) pair. Each
// kind has a fixed schema; a record is either a well-formed success
// payload or an explicit failure payload, never a loose dictionary.
type Record interface {
	// RecordKind returns the metadata kind this record belongs to.
	RecordKind() Kind
	// Succeeded reports whether the producing scan completed.
	Succeeded() bool
	// Valid reports whether the record counts as a completed scan for
	// skip purposes. The rules differ per kind and the differences are
	// deliberate (see DESIGN.md).
	Valid() bool
	// FailureMessage returns the stored error text, if any.
	FailureMessage() string
}

// PlaceholderError marks a record written before the detector call.
// A crashed run leaves it behind, where it reads as a failed scan and
// becomes eligible again under RetryFailed.
const PlaceholderError = "processing"

// DescriptionRecord holds the AI-generated caption and keyword set.
type DescriptionRecord struct {
	Success            bool     `json:"success"`
	ShortDescription   string   `json:"short_description"`
	LongDescription    string   `json:"long_description"`
	Keywords           []string `json:"keywords"`
	HasNudity          bool     `json:"has_nudity"`
	HasExplicitContent bool     `json:"has_explicit_content"`
	OverallMood        string   `json:"overall_mood_of_image"`
	PictureType        string   `json:"picture_type"`
	StyleType          string   `json:"style_type"`
	Error              string   `json:"error,omitempty"`
}

func (r *DescriptionRecord) RecordKind() Kind       { return KindDescription }
func (r *DescriptionRecord) Succeeded() bool        { return r.Success }
func (r *DescriptionRecord) FailureMessage() string { return r.Error }

// Valid requires an actual payload: a success flag alone with no
// keywords and no caption is the empty sentinel and gets rescanned.
func (r *DescriptionRecord) Valid() bool {
	return r.Success && (len(r.Keywords) > 0 || strings.TrimSpace(r.ShortDescription) != "")
}

// FacesRecord holds face recognition results. Faces carries the
// deduplicated identity names; Predictions keeps the raw per-face
// records with the suffixed identities intact.
type FacesRecord struct {
	Success     bool        `json:"success"`
	Count       int         `json:"count"`
	Faces       []string    `json:"faces"`
	Predictions []Detection `json:"predictions"`
	Error       string      `json:"error,omitempty"`
}

func (r *FacesRecord) RecordKind() Kind       { return KindFaces }
func (r *FacesRecord) Succeeded() bool        { return r.Success }
func (r *FacesRecord) FailureMessage() string { return r.Error }

// Valid treats a successful scan with zero faces as complete; a photo
// without people does not need rescanning.
func (r *FacesRecord) Valid() bool { return r.Success }

// ObjectsRecord holds object detection results with a per-label tally.
type ObjectsRecord struct {
	Success      bool           `json:"success"`
	Count        int            `json:"count"`
	Objects      []string       `json:"objects"`
	Predictions  []Detection    `json:"predictions"`
	ObjectCounts map[string]int `json:"object_counts"`
	Error        string         `json:"error,omitempty"`
}

func (r *ObjectsRecord) RecordKind() Kind       { return KindObjects }
func (r *ObjectsRecord) Succeeded() bool        { return r.Success }
func (r *ObjectsRecord) FailureMessage() string { return r.Error }

// Valid requires the explicit success flag; zero predictions without it
// is the empty sentinel left by older runs.
func (r *ObjectsRecord) Valid() bool { return r.Success }

// SceneUnknown is the scene label stored when classification fails.
const SceneUnknown = "unknown"

// ScenesRecord holds scene classification results.
type ScenesRecord struct {
	Success              bool    `json:"success"`
	Scene                string  `json:"scene"`
	Label                string  `json:"label"`
	Confidence           float64 `json:"confidence"`
	ConfidencePercentage float64 `json:"confidence_percentage"`
	Error                string  `json:"error,omitempty"`
}

func (r *ScenesRecord) RecordKind() Kind       { return KindScenes }
func (r *ScenesRecord) Succeeded() bool        { return r.Success }
func (r *ScenesRecord) FailureMessage() string { return r.Error }

// Valid accepts an "unknown" scene even without the success flag: the
// classifier answered, it just could not name the scene.
func (r *ScenesRecord) Valid() bool { return r.Success || r.Scene == SceneUnknown }

// ExifRecord holds tags extracted from the image's EXIF segment.
type ExifRecord struct {
	Success bool              `json:"success"`
	Count   int               `json:"count"`
	Tags    map[string]string `json:"tags"`
	Error   string            `json:"error,omitempty"`
}

func (r *ExifRecord) RecordKind() Kind       { return KindEXIF }
func (r *ExifRecord) Succeeded() bool        { return r.Success }
func (r *ExifRecord) FailureMessage() string { return r.Error }

// Valid requires at least one extracted tag; files with an empty EXIF
// segment get retried since a camera original always carries tags.
func (r *ExifRecord) Valid() bool { return r.Success && r.Count > 0 }

// NewRecord returns an empty record of the given kind, ready for JSON
// decoding. It returns nil for unknown kinds.
func NewRecord(kind Kind) Record {
	switch kind {
	case KindDescription:
		return &DescriptionRecord{}
	case KindFaces:
		return &FacesRecord{}
	case KindObjects:
		return &ObjectsRecord{}
	case KindScenes:
		return &ScenesRecord{}
	case KindEXIF:
		return &ExifRecord{}
	}
	return nil
}

// NewPlaceholder returns the record written before the detector call.
// Unlike NewFailure it never carries the "unknown" scene label, so an
// interrupted scenes run stays invalid and retryable.
func NewPlaceholder(kind Kind) Record {
	switch kind {
	case KindDescription:
		return &DescriptionRecord{Error: PlaceholderError}
	case KindFaces:
		return &FacesRecord{Error: PlaceholderError}
	case KindObjects:
		return &ObjectsRecord{Error: PlaceholderError}
	case KindScenes:
		return &ScenesRecord{Error: PlaceholderError}
	case KindEXIF:
		return &ExifRecord{Error: PlaceholderError}
	}
	return nil
}

// NewFailure returns the failure payload for the given kind. Scenes
// failures additionally carry the "unknown" scene label so downstream
// consumers always see a scene value.
func NewFailure(kind Kind, message string) Record {
	switch kind {
	case KindDescription:
		return &DescriptionRecord{Error: message}
	case KindFaces:
		return &FacesRecord{Error: message}
	case KindObjects:
		return &ObjectsRecord{Error: message}
	case KindScenes:
		return &ScenesRecord{Scene: SceneUnknown, Label: SceneUnknown, Error: message}
	case KindEXIF:
		return &ExifRecord{Error: message}
	}
	return nil
}
