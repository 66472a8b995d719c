package detect

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomsv/metascan/pkg/types"
)

// fakeCaptionClient returns canned answers and records call counts.
type fakeCaptionClient struct {
	record *types.DescriptionRecord
	err    error
	calls  int
}

func (f *fakeCaptionClient) SimpleQuery(ctx context.Context, model, prompt, imgB64 string) (string, error) {
	return "a test image", f.err
}

func (f *fakeCaptionClient) Describe(ctx context.Context, model, prompt, imgB64 string) (*types.DescriptionRecord, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	rec := *f.record
	return &rec, nil
}

func writeTestImage(t *testing.T, dir, name string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 4), uint8(y * 5), 128, 255})
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func TestDescriptionDetector(t *testing.T) {
	img := writeTestImage(t, t.TempDir(), "photo.png")
	fake := &fakeCaptionClient{record: &types.DescriptionRecord{
		ShortDescription: "A colorful gradient test pattern",
		LongDescription:  "A synthetic gradient used for testing.",
		Keywords:         []string{"Gradient", "gradient", " test ", "pattern"},
		PictureType:      "render",
	}}
	d := NewDescriptionDetector(fake, "test-model")
	assert.Equal(t, types.KindDescription, d.Kind())

	rec, err := d.Detect(context.Background(), img)
	require.NoError(t, err)
	desc := rec.(*types.DescriptionRecord)

	assert.True(t, desc.Success)
	assert.True(t, desc.Valid())
	assert.Equal(t, []string{"gradient", "test", "pattern"}, desc.Keywords)
	assert.LessOrEqual(t, len([]rune(desc.ShortDescription)), 80)
	assert.Equal(t, 1, fake.calls)
}

func TestDescriptionDetectorClientError(t *testing.T) {
	img := writeTestImage(t, t.TempDir(), "photo.png")
	fake := &fakeCaptionClient{err: errors.New("model offline")}
	d := NewDescriptionDetector(fake, "test-model")

	_, err := d.Detect(context.Background(), img)
	assert.ErrorContains(t, err, "model offline")
}

func TestDescriptionDetectorUnreadableImage(t *testing.T) {
	fake := &fakeCaptionClient{record: &types.DescriptionRecord{}}
	d := NewDescriptionDetector(fake, "test-model")

	_, err := d.Detect(context.Background(), filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
	assert.Zero(t, fake.calls, "unreadable image must not reach the model")
}
