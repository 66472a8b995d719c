// Package deepstack is a typed client for a DeepStack-compatible
// vision REST API and the face/object/scene detector adapters built on
// top of it.
package deepstack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"k8s.io/klog/v2"
)

// Client handles API calls to a DeepStack-compatible service.
type Client struct {
	BaseURL       string
	APIKey        string
	MinConfidence float64
	httpClient    *http.Client
}

// NewClient creates a new client. minConfidence filters predictions
// server-side; 0 keeps the server default.
func NewClient(baseURL, apiKey string, minConfidence float64) *Client {
	return &Client{
		BaseURL:       baseURL,
		APIKey:        apiKey,
		MinConfidence: minConfidence,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// FacePrediction is one recognized face from the face endpoint.
type FacePrediction struct {
	UserID     string  `json:"userid"`
	Confidence float64 `json:"confidence"`
	XMin       int     `json:"x_min"`
	YMin       int     `json:"y_min"`
	XMax       int     `json:"x_max"`
	YMax       int     `json:"y_max"`
}

// FaceResponse is the response from the face recognition endpoint.
type FaceResponse struct {
	Success     bool             `json:"success"`
	Predictions []FacePrediction `json:"predictions"`
	Error       string           `json:"error,omitempty"`
}

// ObjectPrediction is one detected object from the detection endpoint.
type ObjectPrediction struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	XMin       int     `json:"x_min"`
	YMin       int     `json:"y_min"`
	XMax       int     `json:"x_max"`
	YMax       int     `json:"y_max"`
}

// ObjectResponse is the response from the object detection endpoint.
type ObjectResponse struct {
	Success     bool               `json:"success"`
	Predictions []ObjectPrediction `json:"predictions"`
	Error       string             `json:"error,omitempty"`
}

// SceneResponse is the response from the scene classification endpoint.
type SceneResponse struct {
	Success    bool    `json:"success"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Error      string  `json:"error,omitempty"`
}

// RecognizeFaces recognizes faces in an image file.
// POST /v1/vision/face/recognize
func (c *Client) RecognizeFaces(ctx context.Context, imagePath string) (*FaceResponse, error) {
	var resp FaceResponse
	if err := c.postImage(ctx, "/v1/vision/face/recognize", imagePath, &resp); err != nil {
		return nil, err
	}
	klog.V(1).Infof("RecognizeFaces: %d face(s) in %s", len(resp.Predictions), imagePath)
	return &resp, nil
}

// DetectObjects detects objects in an image file.
// POST /v1/vision/detection
func (c *Client) DetectObjects(ctx context.Context, imagePath string) (*ObjectResponse, error) {
	var resp ObjectResponse
	if err := c.postImage(ctx, "/v1/vision/detection", imagePath, &resp); err != nil {
		return nil, err
	}
	klog.V(1).Infof("DetectObjects: %d object(s) in %s", len(resp.Predictions), imagePath)
	return &resp, nil
}

// ClassifyScene classifies the scene of an image file.
// POST /v1/vision/scene
func (c *Client) ClassifyScene(ctx context.Context, imagePath string) (*SceneResponse, error) {
	var resp SceneResponse
	if err := c.postImage(ctx, "/v1/vision/scene", imagePath, &resp); err != nil {
		return nil, err
	}
	klog.V(1).Infof("ClassifyScene: %s=%q (%.2f)", imagePath, resp.Label, resp.Confidence)
	return &resp, nil
}

func (c *Client) postImage(ctx context.Context, path, imagePath string, out interface{}) error {
	imageData, err := os.ReadFile(imagePath)
	if err != nil {
		return fmt.Errorf("failed to read image file: %w", err)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("image", filepath.Base(imagePath))
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(imageData); err != nil {
		return fmt.Errorf("failed to write image data: %w", err)
	}
	if c.MinConfidence > 0 {
		if err := writer.WriteField("min_confidence", strconv.FormatFloat(c.MinConfidence, 'f', -1, 64)); err != nil {
			return fmt.Errorf("failed to write form field: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close writer: %w", err)
	}

	url := c.BaseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if c.APIKey != "" {
		req.Header.Set("x-api-key", c.APIKey)
	}

	klog.V(2).Infof("POST %s", url)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API error %d: %s", resp.StatusCode, string(respBody))
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
