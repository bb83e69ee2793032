package export

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/markforge/watermark-engine/internal/apperr"
	"github.com/markforge/watermark-engine/internal/model"
)

// decodeSource resolves an image source to a decoded bitmap. Failures wrap
// apperr.ErrImageDecode so the normalizer can classify them.
func decodeSource(src model.ImageSource) (image.Image, error) {
	if src.Bitmap != nil {
		return src.Bitmap, nil
	}

	data := src.Bytes
	if data == nil && src.Inline != "" {
		payload := src.Inline
		if i := strings.Index(payload, ";base64,"); i >= 0 {
			payload = payload[i+len(";base64,"):]
		}
		decoded, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid inline encoding", apperr.ErrImageDecode)
		}
		data = decoded
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty source", apperr.ErrImageDecode)
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: unsupported or corrupt image data", apperr.ErrImageDecode)
	}
	return img, nil
}
