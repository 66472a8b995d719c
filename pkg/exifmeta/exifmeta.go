// Package exifmeta extracts EXIF tags into a sidecar record. Unlike
// the other kinds this one needs no network service; the "detector" is
// a local decode of the image's EXIF segment.
package exifmeta

import (
	"context"
	"fmt"
	"os"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
	"k8s.io/klog/v2"

	"github.com/tomsv/metascan/pkg/types"
)

// Detector extracts EXIF tags from image files.
type Detector struct{}

// NewDetector creates an EXIF detector.
func NewDetector() *Detector {
	return &Detector{}
}

func (d *Detector) Kind() types.Kind { return types.KindEXIF }

// Detect decodes the EXIF segment of the file and returns a record with
// one entry per tag. A file without EXIF data is a failed scan.
func (d *Detector) Detect(ctx context.Context, imagePath string) (types.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(imagePath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", imagePath, err)
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode EXIF of %s: %w", imagePath, err)
	}

	tags := map[string]string{}
	walker := tagWalker{tags: tags}
	if err := x.Walk(walker); err != nil {
		return nil, fmt.Errorf("walk EXIF of %s: %w", imagePath, err)
	}
	klog.V(1).Infof("extracted %d EXIF tag(s) from %s", len(tags), imagePath)

	return &types.ExifRecord{
		Success: true,
		Count:   len(tags),
		Tags:    tags,
	}, nil
}

type tagWalker struct {
	tags map[string]string
}

func (w tagWalker) Walk(name exif.FieldName, tag *tiff.Tag) error {
	w.tags[string(name)] = tag.String()
	return nil
}
