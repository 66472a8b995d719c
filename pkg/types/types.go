package types

// Kind identifies a metadata category stored alongside an image.
type Kind string

const (
	KindDescription Kind = "description"
	KindFaces       Kind = "faces"
	KindObjects     Kind = "objects"
	KindScenes      Kind = "scenes"
	KindEXIF        Kind = "exif"
)

// Kinds returns all supported metadata kinds.
func Kinds() []Kind {
	return []Kind{KindDescription, KindFaces, KindObjects, KindScenes, KindEXIF}
}

// Known reports whether k is one of the supported kinds.
func (k Kind) Known() bool {
	switch k {
	case KindDescription, KindFaces, KindObjects, KindScenes, KindEXIF:
		return true
	}
	return false
}

// Extensions returns the image extensions eligible for this kind.
// The allow-lists are intentionally per-kind: the detection services
// accept slightly different format sets, and EXIF extraction only makes
// sense for formats that carry EXIF segments.
func (k Kind) Extensions() []string {
	switch k {
	case KindDescription, KindScenes:
		return []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp", ".tiff", ".tif"}
	case KindFaces, KindObjects:
		return []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp"}
	case KindEXIF:
		return []string{".jpg", ".jpeg", ".tiff", ".tif"}
	}
	return nil
}

// BoundingBox represents detection coordinates in image pixels.
type BoundingBox struct {
	XMin int `json:"x_min"`
	YMin int `json:"y_min"`
	XMax int `json:"x_max"`
	YMax int `json:"y_max"`
}

// Width returns the box width in pixels.
func (b BoundingBox) Width() int {
	return b.XMax - b.XMin
}

// Height returns the box height in pixels.
func (b BoundingBox) Height() int {
	return b.YMax - b.YMin
}

// Clamp restricts the box to the bounds of a width x height image.
// The result always spans at least one pixel on each axis, so a clamped
// box remains usable for cropping.
func (b BoundingBox) Clamp(width, height int) BoundingBox {
	c := BoundingBox{
		XMin: clampInt(b.XMin, 0, width-1),
		YMin: clampInt(b.YMin, 0, height-1),
		XMax: clampInt(b.XMax, 0, width),
		YMax: clampInt(b.YMax, 0, height),
	}
	if c.XMax <= c.XMin {
		c.XMax = c.XMin + 1
	}
	if c.YMax <= c.YMin {
		c.YMax = c.YMin + 1
	}
	return c
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Detection is a single prediction from a detection service: a labeled
// bounding box with a confidence score in [0,1]. For face recognition
// the label is the recognized identity, suffix included.
type Detection struct {
	Box        BoundingBox `json:"box"`
	Label      string      `json:"label"`
	Confidence float64     `json:"confidence"`
}

// RunPolicy holds the per-invocation flags controlling which files are
// (re)processed. It is built fresh per run and never persisted.
type RunPolicy struct {
	Recurse     bool
	OnlyNew     bool
	RetryFailed bool
	Force       bool
}

// Outcome is the terminal state of a single file in a pipeline run.
type Outcome int

const (
	OutcomeSkipped Outcome = iota
	OutcomeSucceeded
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeFailed:
		return "failed"
	}
	return "unknown"
}

// FileResult reports the outcome of processing one file.
type FileResult struct {
	Path    string
	Kind    Kind
	Outcome Outcome
	Record  Record
	Err     error
}
