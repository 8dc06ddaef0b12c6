package browser

import (
	"bytes"
	"errors"
)

// ErrUnknownImageFormat indicates screenshot bytes matched no known format.
var ErrUnknownImageFormat = errors.New("unknown image format")

var (
	pngMagic  = []byte("\x89PNG\r\n\x1a\n")
	jpegMagic = []byte{0xff, 0xd8, 0xff}
	riffMagic = []byte("RIFF")
	webpTag   = []byte("WEBP")
)

// SniffImageMediaType identifies the media type of captured image bytes by
// magic number. Chrome emits PNG by default but JPEG and WEBP appear when
// capture quality settings change.
func SniffImageMediaType(data []byte) (string, error) {
	if bytes.HasPrefix(data, pngMagic) {
		return "image/png", nil
	}
	if bytes.HasPrefix(data, jpegMagic) {
		return "image/jpeg", nil
	}
	if bytes.HasPrefix(data, riffMagic) && len(data) >= 16 && bytes.Contains(data[:16], webpTag) {
		return "image/webp", nil
	}
	return "", ErrUnknownImageFormat
}
