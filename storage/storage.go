package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var ErrInvalidDataURL = errors.New("image must be a base64 data URL")

// ImageStore persists an uploaded recipe image and returns the reference
// stored on the recipe.
type ImageStore interface {
	Save(ctx context.Context, img *Image) (string, error)
	Name() string
}

type Image struct {
	Data        []byte
	ContentType string
	Ext         string
}

var extensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/jpg":  "jpg",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// DecodeDataURL parses "data:image/<type>;base64,<payload>".
func DecodeDataURL(s string) (*Image, error) {
	header, payload, ok := strings.Cut(s, ",")
	if !ok || !strings.HasPrefix(header, "data:") || !strings.HasSuffix(header, ";base64") {
		return nil, ErrInvalidDataURL
	}
	contentType := strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
	ext, ok := extensions[strings.ToLower(contentType)]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported type %q", ErrInvalidDataURL, contentType)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}
	if len(data) == 0 {
		return nil, ErrInvalidDataURL
	}
	return &Image{Data: data, ContentType: contentType, Ext: ext}, nil
}

// objectName returns a fresh name under the recipes/ prefix.
func objectName(img *Image) string {
	return fmt.Sprintf("recipes/%s.%s", uuid.NewString(), img.Ext)
}
