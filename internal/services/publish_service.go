package services

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/codeseed-ai/codeseed/internal/core"
	"github.com/codeseed-ai/codeseed/internal/core/artifact"
)

var ErrNoFiles = errors.New("at least one file is required")

// PublishFile is one source file of a published artifact.
type PublishFile struct {
	Name     string `json:"name"`
	Language string `json:"language"`
	Code     string `json:"code"`
}

// PublishService archives an artifact's files and uploads the archive to
// object storage, returning a shareable URL.
type PublishService struct {
	store  core.ObjectClient
	bucket string
	logger *zap.Logger
}

func NewPublishService(store core.ObjectClient, bucket string, logger *zap.Logger) *PublishService {
	return &PublishService{store: store, bucket: bucket, logger: logger}
}

func (s *PublishService) Publish(ctx context.Context, userID, title string, files []PublishFile) (string, error) {
	if len(files) == 0 {
		return "", ErrNoFiles
	}
	if title == "" {
		title = "Component"
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for i, f := range files {
		name := f.Name
		if name == "" {
			name = fmt.Sprintf("file_%d.%s", i+1, artifact.FileExtension(f.Language))
		}
		w, err := zw.Create(name)
		if err != nil {
			return "", fmt.Errorf("archive %s: %w", name, err)
		}
		if _, err := w.Write([]byte(f.Code)); err != nil {
			return "", fmt.Errorf("archive %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("finish archive: %w", err)
	}

	key := fmt.Sprintf("artifacts/%s/%s_%s", userID, uuid.NewString(), artifact.ArchiveName(title, time.Now()))
	url, err := s.store.UploadFile(ctx, s.bucket, key, buf.Bytes(), "application/zip")
	if err != nil {
		return "", fmt.Errorf("publish artifact: %w", err)
	}
	s.logger.Info("artifact published", zap.String("userId", userID), zap.String("key", key))
	return url, nil
}
