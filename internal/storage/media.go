package storage

import (
	"context"
	"errors"
)

var (
	// ErrEmptyPath — путь к локальному файлу не задан.
	ErrEmptyPath = errors.New("empty file path")
	// ErrUnsupportedMedia — тип содержимого не входит в allow-list.
	ErrUnsupportedMedia = errors.New("unsupported media type")
	// ErrMediaTooLarge — размер файла превышает лимит.
	ErrMediaTooLarge = errors.New("media file too large")
)

// MediaStorage — контракт загрузки файлов на медиахостинг.
//
// Результат явный: публичный URL либо ошибка с причиной — вызывающий
// обязан обработать отказ, «тихого» пустого результата не бывает.
type MediaStorage interface {
	// UploadLocalFile загружает локальный временный файл в бакет и
	// возвращает публичный URL объекта. Временный файл удаляется
	// и при успехе, и при ошибке.
	UploadLocalFile(ctx context.Context, localPath string) (string, error)
}
