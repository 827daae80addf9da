// Package storage описывает контракт удалённого хранилища блобов.
package storage

import (
	"context"
	"errors"
)

var (
	// ErrNotFound — блоб/объект неизвестен, истёк или удалён.
	ErrNotFound = errors.New("blob not found")
	// ErrForbidden — у подписанта нет прав на объект.
	ErrForbidden = errors.New("signer is not allowed to modify object")
	// ErrUnsupported — бэкенд не поддерживает операцию.
	ErrUnsupported = errors.New("operation not supported by store")
)

// Signer — идентичность, от имени которой изменяется хранилище.
type Signer interface {
	Address() string
}

// WriteOptions — параметры долговечности записи.
type WriteOptions struct {
	Epochs    int
	Deletable bool
}

// StorageInfo — зарезервированное под блоб пространство.
type StorageInfo struct {
	ID          string `json:"id"`
	StartEpoch  int64  `json:"start_epoch"`
	EndEpoch    int64  `json:"end_epoch"`
	StorageSize int64  `json:"storage_size"`
}

// BlobObject — метаданные объекта, назначенные хранилищем.
type BlobObject struct {
	ID              string      `json:"id"`
	BlobID          string      `json:"blob_id"`
	Size            int64       `json:"size"`
	RegisteredEpoch int64       `json:"registered_epoch"`
	Deletable       bool        `json:"deletable"`
	Storage         StorageInfo `json:"storage"`
}

// WriteResult — результат записи.
type WriteResult struct {
	BlobID string
	Object BlobObject
}

// DeletionResult — результат удаления объекта.
type DeletionResult struct {
	ObjectID string `json:"object_id"`
	BlobID   string `json:"blob_id,omitempty"`
	Digest   string `json:"digest,omitempty"`
}

// Store — контентно-адресуемое хранилище байтов.
// Write должен быть безопасен для повтора: каждая попытка — новая запись.
type Store interface {
	Write(ctx context.Context, data []byte, opts WriteOptions, signer Signer) (WriteResult, error)
	Read(ctx context.Context, blobID string) ([]byte, error)
	Delete(ctx context.Context, objectID string, signer Signer) (DeletionResult, error)
}
