package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/nexcharge/apiserver/types"
)

const DefaultExportKey = "chargers.json"

// ChargerLister reads the full charger directory.
type ChargerLister interface {
	List(ctx context.Context, filter types.ChargerFilter) ([]types.Charger, error)
}

// ObjectWriter is the object store a snapshot is written to.
type ObjectWriter interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Bucket() string
}

// DirectorySnapshot is the exported document.
type DirectorySnapshot struct {
	GeneratedAt time.Time       `json:"generatedAt"`
	Count       int             `json:"count"`
	Chargers    []types.Charger `json:"chargers"`
}

// ExportResult describes a written snapshot.
type ExportResult struct {
	Bucket string
	Key    string
	Count  int
	Bytes  int
}

// DirectoryExporter writes the charger directory as JSON to object storage.
type DirectoryExporter struct {
	chargers ChargerLister
	objects  ObjectWriter
	now      func() time.Time
}

func NewDirectoryExporter(chargers ChargerLister, objects ObjectWriter) *DirectoryExporter {
	return &DirectoryExporter{chargers: chargers, objects: objects, now: time.Now}
}

func (e *DirectoryExporter) Export(ctx context.Context, key string) (ExportResult, error) {
	key, err := cleanKey(key)
	if err != nil {
		return ExportResult{}, err
	}

	chargers, err := e.chargers.List(ctx, types.ChargerFilter{})
	if err != nil {
		return ExportResult{}, fmt.Errorf("list chargers: %w", err)
	}

	data, err := json.Marshal(DirectorySnapshot{
		GeneratedAt: e.now().UTC(),
		Count:       len(chargers),
		Chargers:    chargers,
	})
	if err != nil {
		return ExportResult{}, fmt.Errorf("encode snapshot: %w", err)
	}

	if err := e.objects.EnsureBucket(ctx); err != nil {
		return ExportResult{}, fmt.Errorf("ensure bucket %s: %w", e.objects.Bucket(), err)
	}
	if err := e.objects.Put(ctx, key, bytes.NewReader(data), int64(len(data)), "application/json"); err != nil {
		return ExportResult{}, fmt.Errorf("upload %s: %w", key, err)
	}

	return ExportResult{
		Bucket: e.objects.Bucket(),
		Key:    key,
		Count:  len(chargers),
		Bytes:  len(data),
	}, nil
}

func cleanKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return DefaultExportKey, nil
	}
	key = strings.TrimPrefix(path.Clean("/"+key), "/")
	if key == "" || strings.HasSuffix(key, "/") {
		return "", errors.New("export key must name an object")
	}
	return key, nil
}
