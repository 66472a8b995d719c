package ollama

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDescription(t *testing.T) {
	raw := `{"short_description":"a beach","keywords":["beach","sea"],"picture_type":"photo"}`

	rec, err := ParseDescription(raw)
	require.NoError(t, err)
	assert.Equal(t, "a beach", rec.ShortDescription)
	assert.Equal(t, []string{"beach", "sea"}, rec.Keywords)
	assert.Equal(t, "photo", rec.PictureType)
}

func TestParseDescriptionCodeFences(t *testing.T) {
	raw := "```json\n{\"short_description\":\"fenced\",\"keywords\":[\"a\"]}\n```"

	rec, err := ParseDescription(raw)
	require.NoError(t, err)
	assert.Equal(t, "fenced", rec.ShortDescription)
}

func TestParseDescriptionTrailingCommas(t *testing.T) {
	raw := `{"short_description":"messy","keywords":["a","b",],}`

	rec, err := ParseDescription(raw)
	require.NoError(t, err)
	assert.Equal(t, "messy", rec.ShortDescription)
	assert.Equal(t, []string{"a", "b"}, rec.Keywords)
}

func TestParseDescriptionSurroundingProse(t *testing.T) {
	raw := "Sure! Here is the JSON you asked for:\n{\"short_description\":\"wrapped\"}\nHope that helps."

	rec, err := ParseDescription(raw)
	require.NoError(t, err)
	assert.Equal(t, "wrapped", rec.ShortDescription)
}

func TestParseDescriptionNonJSON(t *testing.T) {
	_, err := ParseDescription("I cannot see any image.")
	assert.Error(t, err)
}

func TestNewClientInvalidURL(t *testing.T) {
	_, err := NewClient("http://\x7f")
	assert.Error(t, err)
}
