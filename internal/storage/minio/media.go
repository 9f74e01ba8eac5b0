package minio

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	mclient "github.com/minio/minio-go/v7"

	"github.com/pribylovaa/go-account-service/internal/storage"
)

// allowedContentTypes — принимаемые типы изображений профиля.
var allowedContentTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
}

// UploadLocalFile загружает локальный временный файл в бакет и возвращает
// публичный URL объекта. Ключ объекта — "media/<uuid>.<ext>".
//
// Контракт:
//   - результат явный: URL либо ошибка с причиной;
//   - временный файл удаляется и при успехе, и при ошибке — за собой
//     транспорт не подчищает;
//   - тип содержимого определяется по расширению и валидируется по
//     allow-list, размер — по лимиту из конфига.
func (s *MediaStorage) UploadLocalFile(ctx context.Context, localPath string) (string, error) {
	const op = "storage/minio/media/UploadLocalFile"

	if localPath == "" {
		return "", storage.ErrEmptyPath
	}
	defer os.Remove(localPath)

	info, err := os.Stat(localPath)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if info.Size() <= 0 || info.Size() > s.cfg.Upload.MaxSizeBytes {
		return "", storage.ErrMediaTooLarge
	}

	ext := strings.ToLower(filepath.Ext(localPath))
	contentType := mime.TypeByExtension(ext)
	if _, ok := allowedContentTypes[contentType]; !ok {
		return "", storage.ErrUnsupportedMedia
	}

	key := path.Join("media", uuid.NewString()+ext)

	_, err = s.client.FPutObject(ctx, s.cfg.S3.Bucket, key, localPath, mclient.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return s.publicURL(key), nil
}

// publicURL собирает публичный URL объекта: PublicBaseURL из конфига,
// иначе endpoint + бакет.
func (s *MediaStorage) publicURL(key string) string {
	if base := strings.TrimRight(s.cfg.S3.PublicBaseURL, "/"); base != "" {
		return base + "/" + key
	}

	endpoint := strings.TrimRight(s.cfg.S3.Endpoint, "/")
	return endpoint + "/" + s.cfg.S3.Bucket + "/" + key
}
