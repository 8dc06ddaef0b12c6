package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSniffImageMediaType_PNG(t *testing.T) {
	data := append([]byte("\x89PNG\r\n\x1a\n"), []byte("rest-of-image")...)
	mediaType, err := SniffImageMediaType(data)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mediaType)
}

func TestSniffImageMediaType_JPEG(t *testing.T) {
	data := append([]byte{0xff, 0xd8, 0xff, 0xe0}, []byte("JFIF")...)
	mediaType, err := SniffImageMediaType(data)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mediaType)
}

func TestSniffImageMediaType_WEBP(t *testing.T) {
	// RIFF <size> WEBP layout
	data := []byte("RIFF\x24\x00\x00\x00WEBPVP8 ")
	mediaType, err := SniffImageMediaType(data)
	require.NoError(t, err)
	assert.Equal(t, "image/webp", mediaType)
}

func TestSniffImageMediaType_RIFFWithoutWEBP(t *testing.T) {
	// RIFF container that is not WEBP (e.g. WAVE audio)
	data := []byte("RIFF\x24\x00\x00\x00WAVEfmt ")
	_, err := SniffImageMediaType(data)
	assert.ErrorIs(t, err, ErrUnknownImageFormat)
}

func TestSniffImageMediaType_Unknown(t *testing.T) {
	_, err := SniffImageMediaType([]byte("<html>not an image</html>"))
	assert.ErrorIs(t, err, ErrUnknownImageFormat)

	_, err = SniffImageMediaType(nil)
	assert.ErrorIs(t, err, ErrUnknownImageFormat)
}
