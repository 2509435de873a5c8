package contenttype

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder

	"github.com/cirruslabs/mediacache/internal/media"
	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/webp" // register WebP decoder
)

// ProbeImage reads just enough of the payload to tell its format and dimensions.
func ProbeImage(payload []byte) (*media.Image, error) {
	config, format, err := image.DecodeConfig(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image header: %w", err)
	}

	return &media.Image{
		Format: format,
		Width:  config.Width,
		Height: config.Height,
	}, nil
}
