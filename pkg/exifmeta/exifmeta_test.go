package exifmeta

import (
	"context"
	"encoding/binary"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomsv/metascan/pkg/types"
)

// writeTiffWithTags writes a minimal little-endian TIFF whose IFD0
// carries Make and Model ASCII tags.
func writeTiffWithTags(t *testing.T, path string) {
	t.Helper()

	le := binary.LittleEndian
	buf := make([]byte, 0, 64)

	// header, IFD0 at offset 8
	buf = append(buf, 'I', 'I', 0x2A, 0x00)
	buf = le.AppendUint32(buf, 8)

	// two directory entries
	buf = le.AppendUint16(buf, 2)
	entry := func(tag uint16, valueOffset uint32) {
		buf = le.AppendUint16(buf, tag)
		buf = le.AppendUint16(buf, 2) // ASCII
		buf = le.AppendUint32(buf, 6) // length incl. NUL
		buf = le.AppendUint32(buf, valueOffset)
	}
	entry(0x010F, 38) // Make
	entry(0x0110, 44) // Model
	buf = le.AppendUint32(buf, 0) // no next IFD

	buf = append(buf, "GoCam\x00"...)
	buf = append(buf, "Mark2\x00"...)

	require.NoError(t, os.WriteFile(path, buf, 0o644))
}

func TestDetectExtractsTags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shot.tiff")
	writeTiffWithTags(t, path)

	rec, err := NewDetector().Detect(context.Background(), path)
	require.NoError(t, err)

	exifRec := rec.(*types.ExifRecord)
	assert.True(t, exifRec.Success)
	assert.True(t, exifRec.Valid())
	assert.Equal(t, 2, exifRec.Count)
	assert.Contains(t, exifRec.Tags["Make"], "GoCam")
	assert.Contains(t, exifRec.Tags["Model"], "Mark2")
}

func TestDetectNoExifSegment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.jpg")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, jpeg.Encode(f, image.NewRGBA(image.Rect(0, 0, 8, 8)), nil))
	require.NoError(t, f.Close())

	_, err = NewDetector().Detect(context.Background(), path)
	assert.Error(t, err, "a JPEG without an EXIF segment is a failed scan")
}

func TestDetectMissingFile(t *testing.T) {
	_, err := NewDetector().Detect(context.Background(), filepath.Join(t.TempDir(), "gone.jpg"))
	assert.Error(t, err)
}

func TestDetectCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewDetector().Detect(ctx, "ignored.jpg")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDetectorKind(t *testing.T) {
	assert.Equal(t, types.KindEXIF, NewDetector().Kind())
}
