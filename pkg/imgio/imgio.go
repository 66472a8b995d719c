// Package imgio handles image decode/encode for the pipeline: loading
// with WebP fallback, sizing images for vision models, and exporting
// face crops from recognition results.
package imgio

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/tomsv/metascan/pkg/types"
)

// LoadImage loads an image from a file path with WebP support.
func LoadImage(path string) (image.Image, error) {
	// Try imaging.Open (registered decoders)
	if img, err := imaging.Open(path); err == nil {
		return img, nil
	}

	// Fallback: explicit WebP decode
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if strings.HasSuffix(strings.ToLower(path), ".webp") {
		if img, err := webp.Decode(f); err == nil {
			return img, nil
		}
	}
	if _, err := f.Seek(0, 0); err == nil {
		if img, _, err := image.Decode(f); err == nil {
			return img, nil
		}
	}
	return nil, fmt.Errorf("image: unknown format for %s", path)
}

// Bounds returns the pixel width and height of the image at path.
func Bounds(path string) (int, int, error) {
	img, err := LoadImage(path)
	if err != nil {
		return 0, 0, err
	}
	b := img.Bounds()
	return b.Dx(), b.Dy(), nil
}

// PrepareForModel resizes an image to maxDim on its long side and
// returns it base64-encoded as JPEG, ready for a vision model request.
// maxDim 0 keeps the original size.
func PrepareForModel(img image.Image, maxDim, quality int) (string, error) {
	if maxDim > 0 {
		b := img.Bounds()
		w, h := b.Dx(), b.Dy()
		if w > maxDim || h > maxDim {
			if w >= h {
				img = imaging.Resize(img, maxDim, 0, imaging.Lanczos)
			} else {
				img = imaging.Resize(img, 0, maxDim, imaging.Lanczos)
			}
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// SaveImage writes an image in the format implied by the extension of
// path: webp, png, or jpg.
func SaveImage(img image.Image, path string, quality int) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".webp":
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		return webp.Encode(f, img, &webp.Options{Quality: float32(quality)})
	case ".png":
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		return enc.Encode(f, img)
	default:
		return imaging.Save(img, path, imaging.JPEGQuality(quality))
	}
}

// ExportFaceCrops writes one crop per detection into outDir, named
// <image-base>_<label>_<n>.<ext>. Boxes are clamped to the image bounds
// before cropping, so an oversized box from the detector still yields a
// usable crop. It returns the paths written.
func ExportFaceCrops(imagePath, outDir, ext string, detections []types.Detection, quality int) ([]string, error) {
	if len(detections) == 0 {
		return nil, nil
	}
	img, err := LoadImage(imagePath)
	if err != nil {
		return nil, fmt.Errorf("load %s for face crops: %w", imagePath, err)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create crop directory: %w", err)
	}

	b := img.Bounds()
	base := strings.TrimSuffix(filepath.Base(imagePath), filepath.Ext(imagePath))
	if ext == "" {
		ext = "jpg"
	}

	var written []string
	for i, det := range detections {
		box := det.Box.Clamp(b.Dx(), b.Dy())
		rect := image.Rect(box.XMin, box.YMin, box.XMax, box.YMax)
		crop := imaging.Crop(img, rect)

		label := det.Label
		if label == "" {
			label = "face"
		}
		name := fmt.Sprintf("%s_%s_%d.%s", base, sanitizeLabel(label), i+1, strings.ToLower(ext))
		out := filepath.Join(outDir, name)
		if err := SaveImage(crop, out, quality); err != nil {
			return written, fmt.Errorf("save face crop %s: %w", out, err)
		}
		written = append(written, out)
	}
	return written, nil
}

func sanitizeLabel(label string) string {
	invalid := []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|", " "}
	for _, ch := range invalid {
		label = strings.ReplaceAll(label, ch, "_")
	}
	return strings.Trim(label, " .")
}
