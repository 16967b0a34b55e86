// Package storage keeps the raw bytes of uploaded documents.
package storage

import (
	"context"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/cppla/docqa/config"
)

// ObjectStore saves and removes uploaded payloads. Save returns the location
// recorded as the document's storage_path.
type ObjectStore interface {
	Save(ctx context.Context, key, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, location string) error
}

// NewKey returns "<uuid hex>_<basename>" for filename.
func NewKey(filename string) string {
	id := uuid.New()
	return hex.EncodeToString(id[:]) + "_" + BaseName(filename)
}

// MaxNameBytes bounds a stored filename so "<uuid hex>_<name>" stays under the
// usual 255 byte filesystem limit and fits the filename column.
const MaxNameBytes = 200

// BaseName strips any directory part a client put in the filename, under
// either separator, and shortens it to MaxNameBytes keeping the extension.
func BaseName(filename string) string {
	name := strings.ReplaceAll(filename, "\\", "/")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." {
		return "upload"
	}
	return capName(name, MaxNameBytes)
}

func capName(name string, limit int) string {
	if len(name) <= limit {
		return name
	}
	ext := filepath.Ext(name)
	if len(ext) > limit/4 {
		ext = ""
	}
	stem := name[:len(name)-len(ext)]
	cut := limit - len(ext)
	for cut > 0 && !utf8.RuneStart(stem[cut]) {
		cut--
	}
	return stem[:cut] + ext
}

// New builds the backend selected by cfg.StorageBackend.
func New(ctx context.Context, cfg config.AppConfig) (ObjectStore, error) {
	switch strings.ToLower(cfg.StorageBackend) {
	case "", "local":
		return NewLocal(filepath.Clean(cfg.UploadDir))
	case "minio", "s3":
		return NewMinio(ctx, MinioOptions{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
