package detect

import (
	"context"
	"fmt"

	"k8s.io/klog/v2"

	"github.com/tomsv/metascan/pkg/client"
	"github.com/tomsv/metascan/pkg/imgio"
	"github.com/tomsv/metascan/pkg/types"
)

// ProbePrompt is used to check that the model can actually see images.
const ProbePrompt = `What do you see in this image? Describe it briefly.`

// DescriptionPrompt asks the vision model for captions and keywords.
const DescriptionPrompt = `You are an image cataloging assistant.

Return JSON only:
{
  "short_description": "string (max 80 characters)",
  "long_description": "string",
  "keywords": ["keyword1", "keyword2"],
  "has_nudity": false,
  "has_explicit_content": false,
  "overall_mood_of_image": "string",
  "picture_type": "string",
  "style_type": "string"
}

HARD RULES
- short_description is a neutral caption of at most 80 characters.
- keywords: 3-15 lowercase single words or short phrases, no duplicates.
- picture_type is one of: photo, screenshot, drawing, painting, diagram, render.
- style_type describes the visual style in one or two words.
- overall_mood_of_image is one or two words.
- Do not guess real identities of people.
- JSON only. No markdown, no code fences, no comments, no trailing commas.`

const (
	maxKeywords        = 15
	maxShortDescChars  = 80
	modelImageLongSide = 1536
	modelImageQuality  = 85
)

// DescriptionDetector generates the description/keywords record by
// sending the image to a local vision language model.
type DescriptionDetector struct {
	client client.CaptionClient
	model  string
}

// NewDescriptionDetector creates a detector backed by the given caption
// client and model name.
func NewDescriptionDetector(c client.CaptionClient, model string) *DescriptionDetector {
	return &DescriptionDetector{client: c, model: model}
}

// Kind returns the metadata kind this detector produces.
func (d *DescriptionDetector) Kind() types.Kind { return types.KindDescription }

// Detect loads and downscales the image, queries the model, and
// normalizes the parsed result.
func (d *DescriptionDetector) Detect(ctx context.Context, imagePath string) (types.Record, error) {
	img, err := imgio.LoadImage(imagePath)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", imagePath, err)
	}
	imgB64, err := imgio.PrepareForModel(img, modelImageLongSide, modelImageQuality)
	if err != nil {
		return nil, fmt.Errorf("encode %s for model: %w", imagePath, err)
	}

	rec, err := d.client.Describe(ctx, d.model, DescriptionPrompt, imgB64)
	if err != nil {
		return nil, err
	}

	rec.Keywords = NormalizeKeywords(rec.Keywords, maxKeywords)
	rec.ShortDescription = TruncateDescription(rec.ShortDescription, maxShortDescChars)
	rec.Success = true
	klog.V(1).Infof("described %s: %q, %d keywords", imagePath, rec.ShortDescription, len(rec.Keywords))
	return rec, nil
}

// Probe sends a plain "what do you see" query, useful for verifying
// that the configured model accepts images at all.
func (d *DescriptionDetector) Probe(ctx context.Context, imagePath string) (string, error) {
	img, err := imgio.LoadImage(imagePath)
	if err != nil {
		return "", fmt.Errorf("load %s: %w", imagePath, err)
	}
	imgB64, err := imgio.PrepareForModel(img, modelImageLongSide, modelImageQuality)
	if err != nil {
		return "", err
	}
	return d.client.SimpleQuery(ctx, d.model, ProbePrompt, imgB64)
}
