package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore writes images under a media root served at a URL prefix.
type LocalStore struct {
	root   string
	urlFor string
}

func NewLocalStore(root, mediaURL string) *LocalStore {
	return &LocalStore{root: root, urlFor: strings.TrimRight(mediaURL, "/")}
}

func (s *LocalStore) Name() string { return "local" }

func (s *LocalStore) Save(ctx context.Context, img *Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := objectName(img)
	path := filepath.Join(s.root, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}
	if err := os.WriteFile(path, img.Data, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return s.urlFor + "/" + name, nil
}
