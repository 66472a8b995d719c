package deepstack

import (
	"context"
	"fmt"

	"k8s.io/klog/v2"

	"github.com/tomsv/metascan/pkg/detect"
	"github.com/tomsv/metascan/pkg/imgio"
	"github.com/tomsv/metascan/pkg/types"
)

// FaceDetector produces the faces record via the recognition endpoint.
type FaceDetector struct {
	client *Client
}

// NewFaceDetector creates a faces detector on top of a client.
func NewFaceDetector(c *Client) *FaceDetector {
	return &FaceDetector{client: c}
}

func (d *FaceDetector) Kind() types.Kind { return types.KindFaces }

// Detect recognizes faces and builds the faces record: raw predictions
// keep their suffixed identities, the summary list collapses them.
func (d *FaceDetector) Detect(ctx context.Context, imagePath string) (types.Record, error) {
	resp, err := d.client.RecognizeFaces(ctx, imagePath)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("face recognition rejected %s: %s", imagePath, resp.Error)
	}

	predictions := make([]types.Detection, 0, len(resp.Predictions))
	for _, p := range resp.Predictions {
		predictions = append(predictions, types.Detection{
			Box:        types.BoundingBox{XMin: p.XMin, YMin: p.YMin, XMax: p.XMax, YMax: p.YMax},
			Label:      p.UserID,
			Confidence: p.Confidence,
		})
	}
	predictions = clampToImage(imagePath, predictions)

	return &types.FacesRecord{
		Success:     true,
		Count:       len(predictions),
		Faces:       detect.CollapseIdentities(predictions),
		Predictions: predictions,
	}, nil
}

// ObjectDetector produces the objects record via the detection endpoint.
type ObjectDetector struct {
	client *Client
}

// NewObjectDetector creates an objects detector on top of a client.
func NewObjectDetector(c *Client) *ObjectDetector {
	return &ObjectDetector{client: c}
}

func (d *ObjectDetector) Kind() types.Kind { return types.KindObjects }

// Detect detects objects and builds the objects record with the
// per-label tally.
func (d *ObjectDetector) Detect(ctx context.Context, imagePath string) (types.Record, error) {
	resp, err := d.client.DetectObjects(ctx, imagePath)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("object detection rejected %s: %s", imagePath, resp.Error)
	}

	predictions := make([]types.Detection, 0, len(resp.Predictions))
	for _, p := range resp.Predictions {
		predictions = append(predictions, types.Detection{
			Box:        types.BoundingBox{XMin: p.XMin, YMin: p.YMin, XMax: p.XMax, YMax: p.YMax},
			Label:      p.Label,
			Confidence: p.Confidence,
		})
	}
	predictions = clampToImage(imagePath, predictions)

	return &types.ObjectsRecord{
		Success:      true,
		Count:        len(predictions),
		Objects:      detect.UniqueLabels(predictions),
		Predictions:  predictions,
		ObjectCounts: detect.CountLabels(predictions),
	}, nil
}

// SceneDetector produces the scenes record via the scene endpoint.
type SceneDetector struct {
	client *Client
}

// NewSceneDetector creates a scenes detector on top of a client.
func NewSceneDetector(c *Client) *SceneDetector {
	return &SceneDetector{client: c}
}

func (d *SceneDetector) Kind() types.Kind { return types.KindScenes }

// Detect classifies the scene. An unsuccessful classification becomes a
// record with the "unknown" scene rather than an error, matching the
// stored failure shape.
func (d *SceneDetector) Detect(ctx context.Context, imagePath string) (types.Record, error) {
	resp, err := d.client.ClassifyScene(ctx, imagePath)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return &types.ScenesRecord{
			Success: false,
			Scene:   types.SceneUnknown,
			Label:   types.SceneUnknown,
			Error:   resp.Error,
		}, nil
	}

	return &types.ScenesRecord{
		Success:              true,
		Scene:                resp.Label,
		Label:                resp.Label,
		Confidence:           resp.Confidence,
		ConfidencePercentage: resp.Confidence * 100,
	}, nil
}

// clampToImage clamps boxes to the image's pixel bounds. When the image
// cannot be decoded the predictions pass through unclamped; the service
// already saw the same bytes.
func clampToImage(imagePath string, predictions []types.Detection) []types.Detection {
	if len(predictions) == 0 {
		return predictions
	}
	w, h, err := imgio.Bounds(imagePath)
	if err != nil {
		klog.Warningf("cannot decode %s for box clamping: %v", imagePath, err)
		return predictions
	}
	return detect.ClampDetections(predictions, w, h)
}
