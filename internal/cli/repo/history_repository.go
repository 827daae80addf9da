package repo

import (
	"DBWalrus/internal/cli/model"
	"errors"
)

// ErrNotFound — записи с таким blob id нет в истории.
var ErrNotFound = errors.New("upload not found in history")

// HistoryRepository определяет порт доступа к локальной истории загрузок.
type HistoryRepository interface {
	// Add сохраняет запись и возвращает её ID.
	Add(u model.Upload) (string, error)

	// List возвращает все записи, новые первыми.
	List() ([]model.Upload, error)

	// GetByBlobID возвращает последнюю загрузку с указанным blob id.
	GetByBlobID(blobID string) (*model.Upload, error)
}
