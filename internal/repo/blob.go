package repo

import (
	"DBWalrus/internal/model"
	"DBWalrus/internal/storage"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EpochDuration — длительность эпохи хранения в бэкенде "db".
const EpochDuration = 24 * time.Hour

// BlobRepository — хранилище блобов в реляционной БД, реализует storage.Store.
type BlobRepository struct {
	db  *gorm.DB
	now func() time.Time
}

var _ storage.Store = (*BlobRepository)(nil)

// NewBlobRepository создаёт репозиторий блобов.
func NewBlobRepository(db *gorm.DB) *BlobRepository {
	return &BlobRepository{db: db, now: time.Now}
}

// BlobID вычисляет контентный адрес: base64url(sha256(data)) без паддинга.
func BlobID(data []byte) string {
	sum := sha256.Sum256(data)
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func (r *BlobRepository) epoch(t time.Time) int64 {
	return t.Unix() / int64(EpochDuration/time.Second)
}

// Write сохраняет данные как новый объект, принадлежащий подписанту.
func (r *BlobRepository) Write(ctx context.Context, data []byte, opts storage.WriteOptions, signer storage.Signer) (storage.WriteResult, error) {
	if signer == nil {
		return storage.WriteResult{}, errors.New("signer is required")
	}
	epochs := opts.Epochs
	if epochs <= 0 {
		epochs = 1
	}
	start := r.epoch(r.now())
	b := &model.StoredBlob{
		ObjectID:    uuid.NewString(),
		BlobID:      BlobID(data),
		Owner:       signer.Address(),
		Data:        data,
		Size:        int64(len(data)),
		StorageSize: int64(len(data)),
		StartEpoch:  start,
		EndEpoch:    start + int64(epochs),
		Deletable:   opts.Deletable,
	}
	if err := r.db.WithContext(ctx).Create(b).Error; err != nil {
		return storage.WriteResult{}, fmt.Errorf("insert blob: %w", err)
	}
	return storage.WriteResult{BlobID: b.BlobID, Object: toObject(b)}, nil
}

// Read возвращает данные самого свежего непросроченного объекта с данным BlobID.
func (r *BlobRepository) Read(ctx context.Context, blobID string) ([]byte, error) {
	var b model.StoredBlob
	err := r.db.WithContext(ctx).
		Where("blob_id = ? AND end_epoch > ?", blobID, r.epoch(r.now())).
		Order("created_at DESC").
		First(&b).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("select blob: %w", err)
	}
	return b.Data, nil
}

// Delete удаляет объект. Удалять может только владелец и только удаляемые объекты.
func (r *BlobRepository) Delete(ctx context.Context, objectID string, signer storage.Signer) (storage.DeletionResult, error) {
	if signer == nil {
		return storage.DeletionResult{}, errors.New("signer is required")
	}
	var res storage.DeletionResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var b model.StoredBlob
		if err := tx.Where("object_id = ?", objectID).First(&b).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		if b.Owner != signer.Address() {
			return storage.ErrForbidden
		}
		if !b.Deletable {
			return fmt.Errorf("%w: object is not deletable", storage.ErrForbidden)
		}
		if err := tx.Delete(&model.StoredBlob{}, "object_id = ?", objectID).Error; err != nil {
			return err
		}
		res = storage.DeletionResult{ObjectID: b.ObjectID, BlobID: b.BlobID}
		return nil
	})
	if err != nil {
		return storage.DeletionResult{}, err
	}
	return res, nil
}

func toObject(b *model.StoredBlob) storage.BlobObject {
	return storage.BlobObject{
		ID:              b.ObjectID,
		BlobID:          b.BlobID,
		Size:            b.Size,
		RegisteredEpoch: b.StartEpoch,
		Deletable:       b.Deletable,
		Storage: storage.StorageInfo{
			ID:          b.ObjectID,
			StartEpoch:  b.StartEpoch,
			EndEpoch:    b.EndEpoch,
			StorageSize: b.StorageSize,
		},
	}
}
