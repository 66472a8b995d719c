package sidecar

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomsv/metascan/pkg/types"
)

func testImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "photo.jpg")
	require.NoError(t, os.WriteFile(path, []byte("not really a jpeg"), 0o644))
	return path
}

func TestRoundTrip(t *testing.T) {
	store := NewStore()
	img := testImage(t)

	in := &types.FacesRecord{
		Success: true,
		Count:   2,
		Faces:   []string{"alice"},
		Predictions: []types.Detection{
			{Box: types.BoundingBox{XMin: 1, YMin: 2, XMax: 30, YMax: 40}, Label: "alice_20240101", Confidence: 0.93},
			{Box: types.BoundingBox{XMin: 50, YMin: 10, XMax: 90, YMax: 60}, Label: "alice_20240215", Confidence: 0.88},
		},
	}
	require.NoError(t, store.Write(img, types.KindFaces, in))

	out, err := store.Read(img, types.KindFaces)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestReadMissing(t *testing.T) {
	store := NewStore()
	img := testImage(t)

	_, err := store.Read(img, types.KindFaces)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReadMalformed(t *testing.T) {
	store := NewStore()
	img := testImage(t)

	require.NoError(t, os.WriteFile(store.Path(img, types.KindObjects), []byte("{truncated"), 0o644))

	_, err := store.Read(img, types.KindObjects)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestKindsAreIndependent(t *testing.T) {
	store := NewStore()
	img := testImage(t)

	require.NoError(t, store.Write(img, types.KindFaces, &types.FacesRecord{Success: true}))

	_, err := store.Read(img, types.KindScenes)
	assert.ErrorIs(t, err, ErrNotFound, "faces record must not satisfy a scenes read")
}

func TestWriteClearsReadOnly(t *testing.T) {
	store := NewStore()
	img := testImage(t)
	require.NoError(t, os.Chmod(img, 0o444))

	require.NoError(t, store.Write(img, types.KindEXIF, &types.ExifRecord{Success: true, Count: 1, Tags: map[string]string{"Make": "Canon"}}))

	fi, err := os.Stat(img)
	require.NoError(t, err)
	assert.NotZero(t, fi.Mode().Perm()&0o200, "image write bit should be restored")
}

func TestOverwriteReadOnlySidecar(t *testing.T) {
	store := NewStore()
	img := testImage(t)

	require.NoError(t, store.Write(img, types.KindFaces, &types.FacesRecord{Success: true}))
	require.NoError(t, os.Chmod(store.Path(img, types.KindFaces), 0o444))

	require.NoError(t, store.Write(img, types.KindFaces, &types.FacesRecord{Success: true, Count: 1}))

	out, err := store.Read(img, types.KindFaces)
	require.NoError(t, err)
	assert.Equal(t, 1, out.(*types.FacesRecord).Count)
}

func TestWritePlaceholder(t *testing.T) {
	store := NewStore()
	img := testImage(t)

	require.NoError(t, store.WritePlaceholder(img, types.KindDescription))

	rec, err := store.Read(img, types.KindDescription)
	require.NoError(t, err)
	assert.False(t, rec.Succeeded())
	assert.False(t, rec.Valid())
	assert.Equal(t, types.PlaceholderError, rec.FailureMessage())
}

func TestPlaceholderDoesNotOverwrite(t *testing.T) {
	store := NewStore()
	img := testImage(t)

	require.NoError(t, store.Write(img, types.KindDescription, &types.DescriptionRecord{
		Success:  true,
		Keywords: []string{"beach"},
	}))
	require.NoError(t, store.WritePlaceholder(img, types.KindDescription))

	rec, err := store.Read(img, types.KindDescription)
	require.NoError(t, err)
	assert.True(t, rec.Succeeded(), "placeholder must not downgrade a completed record")
}

func TestWriteFailure(t *testing.T) {
	store := NewStore()
	img := testImage(t)

	require.NoError(t, store.WriteFailure(img, types.KindScenes, "service down"))

	rec, err := store.Read(img, types.KindScenes)
	require.NoError(t, err)
	scenes := rec.(*types.ScenesRecord)
	assert.False(t, scenes.Success)
	assert.Equal(t, types.SceneUnknown, scenes.Scene)
	assert.Equal(t, "service down", scenes.Error)
}

func TestNoTempFilesLeftBehind(t *testing.T) {
	store := NewStore()
	img := testImage(t)
	require.NoError(t, store.Write(img, types.KindFaces, &types.FacesRecord{Success: true}))

	entries, err := os.ReadDir(filepath.Dir(img))
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp")
	}
}
