package service

import (
	"DBWalrus/internal/crypto"
	"DBWalrus/internal/retry"
	"DBWalrus/internal/storage"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
)

// DecryptFailedDetail — единственное описание ошибки расшифровки, которое видит клиент.
const DecryptFailedDetail = "Invalid encryption key or corrupted data"

// Options — параметры конвейера, задаются один раз при старте.
type Options struct {
	Retry retry.Policy
	Write storage.WriteOptions
	Codec *crypto.Codec
}

// BlobPipeline связывает шифрование, повторы и хранилище в операции save/retrieve/delete.
// Состояние только для чтения; безопасен для конкурентного использования.
type BlobPipeline struct {
	store  storage.Store
	signer storage.Signer
	codec  *crypto.Codec
	policy retry.Policy
	write  storage.WriteOptions
	logger *zap.SugaredLogger
	now    func() time.Time
}

// NewBlobPipeline создаёт конвейер.
func NewBlobPipeline(store storage.Store, signer storage.Signer, logger *zap.SugaredLogger, opts Options) *BlobPipeline {
	codec := opts.Codec
	if codec == nil {
		codec = crypto.NewCodec(nil)
	}
	policy := opts.Retry
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &BlobPipeline{
		store:  store,
		signer: signer,
		codec:  codec,
		policy: policy,
		write:  opts.Write,
		logger: logger,
		now:    time.Now,
	}
}

// Signer возвращает идентичность, от имени которой пишет конвейер.
func (p *BlobPipeline) Signer() storage.Signer { return p.signer }

// StorageDisplay — StorageInfo с размером в мегабайтах.
type StorageDisplay struct {
	ID          string `json:"id"`
	StartEpoch  int64  `json:"start_epoch"`
	EndEpoch    int64  `json:"end_epoch"`
	StorageSize string `json:"storage_size"`
}

// BlobObjectDisplay — BlobObject с размерами в мегабайтах для отображения.
type BlobObjectDisplay struct {
	ID              string         `json:"id"`
	BlobID          string         `json:"blob_id"`
	Size            string         `json:"size"`
	RegisteredEpoch int64          `json:"registered_epoch"`
	Deletable       bool           `json:"deletable"`
	Storage         StorageDisplay `json:"storage"`
}

// BlobRecord — результат успешного сохранения.
type BlobRecord struct {
	BlobID        string              `json:"blobId"`
	BlobObject    BlobObjectDisplay   `json:"blobObject"`
	TimeSpent     float64             `json:"timeSpent"`
	EncryptionKey *crypto.KeyMaterial `json:"encryptionKey,omitempty"`
}

// RetrieveResult — сырые данные и, если передан ключ, расшифрованные.
type RetrieveResult struct {
	RawData       string
	DecryptedData *string
}

// FormatMB переводит байты в мегабайты с заданной точностью: "0.000016 MB".
func FormatMB(n int64, precision int) string {
	return fmt.Sprintf("%.*f MB", precision, float64(n)/(1024*1024))
}

// Save сериализует payload, при наличии km шифрует его и записывает в хранилище с повторами.
func (p *BlobPipeline) Save(ctx context.Context, payload any, km *crypto.KeyMaterial) (*BlobRecord, error) {
	const op = "save"
	start := p.now()

	text, err := serialize(payload)
	if err != nil {
		return nil, validationError(op, err.Error())
	}

	var echoed *crypto.KeyMaterial
	if km != nil {
		if err := km.Validate(); err != nil {
			return nil, validationError(op, err.Error())
		}
		env, err := p.codec.Encrypt([]byte(text), *km)
		if err != nil {
			return nil, &Error{Kind: KindInternal, Op: op, Detail: "encryption failed", Err: err}
		}
		text = env
		k := *km
		echoed = &k
	}
	data := []byte(text)

	policy := p.policy
	policy.Observer = func(a retry.Attempt) {
		if a.Err == nil {
			p.logger.Infow("Blob write attempt succeeded", "attempt", a.Number, "duration", a.Duration)
			return
		}
		p.logger.Warnw("Blob write attempt failed",
			"attempt", a.Number,
			"max_attempts", policy.MaxAttempts,
			"duration", a.Duration,
			"retry_in", a.Delay,
			"error", a.Err,
		)
	}

	res, err := retry.Do(ctx, policy, func(ctx context.Context) (storage.WriteResult, error) {
		return p.store.Write(ctx, data, p.write, p.signer)
	})
	if err != nil {
		var ex *retry.ExhaustedError
		if errors.As(err, &ex) {
			return nil, &Error{
				Kind:     KindRetryExhausted,
				Op:       op,
				Detail:   fmt.Sprintf("failed to save blob after %d attempts", ex.Attempts),
				Attempts: ex.Attempts,
				Err:      ex.Err,
			}
		}
		return nil, &Error{Kind: KindTransientStore, Op: op, Err: err}
	}

	elapsed := p.now().Sub(start).Seconds()
	p.logger.Infow("Blob saved", "blob_id", res.BlobID, "object_id", res.Object.ID, "bytes", len(data), "time_spent", elapsed, "encrypted", echoed != nil)

	return &BlobRecord{
		BlobID:        res.BlobID,
		BlobObject:    display(res.Object),
		TimeSpent:     elapsed,
		EncryptionKey: echoed,
	}, nil
}

// Retrieve читает блоб и, если передан ключ, расшифровывает его. Ошибки расшифровки не повторяются.
func (p *BlobPipeline) Retrieve(ctx context.Context, blobID string, key string) (*RetrieveResult, error) {
	const op = "retrieve"
	if blobID == "" {
		return nil, validationError(op, "blob id is required")
	}

	raw, err := p.store.Read(ctx, blobID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, &Error{Kind: KindNotFound, Op: op, Detail: "blob " + blobID, Err: err}
		}
		return nil, &Error{Kind: KindTransientStore, Op: op, Err: err}
	}
	res := &RetrieveResult{RawData: string(raw)}
	if key == "" {
		return res, nil
	}

	plain, err := p.codec.Decrypt(res.RawData, key)
	switch {
	case errors.Is(err, crypto.ErrMalformedEnvelope):
		return nil, &Error{Kind: KindMalformedEnvelope, Op: op, Detail: DecryptFailedDetail, Err: err}
	case err != nil:
		return nil, &Error{Kind: KindDecryption, Op: op, Detail: DecryptFailedDetail, Err: err}
	case !utf8.Valid(plain):
		return nil, &Error{Kind: KindDecryption, Op: op, Detail: DecryptFailedDetail, Err: errors.New("plaintext is not utf-8")}
	}
	s := string(plain)
	res.DecryptedData = &s
	return res, nil
}

// Delete удаляет объект блоба одной попыткой.
func (p *BlobPipeline) Delete(ctx context.Context, objectID string) (*storage.DeletionResult, error) {
	const op = "delete"
	if objectID == "" {
		return nil, validationError(op, "blob object id is required")
	}
	res, err := p.store.Delete(ctx, objectID, p.signer)
	if err != nil {
		return nil, &Error{Kind: KindDeleteFailed, Op: op, Detail: "failed to delete blob", Err: err}
	}
	p.logger.Infow("Blob deleted", "object_id", objectID)
	return &res, nil
}

// serialize приводит полезную нагрузку к тексту: байты и строки как есть,
// JSON-строка — её содержимое, остальной JSON — в записи JSON.stringify.
func serialize(payload any) (string, error) {
	switch v := payload.(type) {
	case nil:
		return "", errors.New("data is required")
	case json.RawMessage:
		if IsFalsyJSON(v) {
			return "", errors.New("data is required")
		}
		trimmed := bytes.TrimSpace(v)
		if trimmed[0] == '"' {
			var s string
			if err := json.Unmarshal(trimmed, &s); err != nil {
				return "", fmt.Errorf("data: %w", err)
			}
			return s, nil
		}
		s, err := canonicalJSON(trimmed)
		if err != nil {
			return "", fmt.Errorf("data: %w", err)
		}
		return s, nil
	case []byte:
		return string(v), nil
	case string:
		return v, nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("data is not serializable: %w", err)
		}
		return string(b), nil
	}
}

func display(o storage.BlobObject) BlobObjectDisplay {
	return BlobObjectDisplay{
		ID:              o.ID,
		BlobID:          o.BlobID,
		Size:            FormatMB(o.Size, 6),
		RegisteredEpoch: o.RegisteredEpoch,
		Deletable:       o.Deletable,
		Storage: StorageDisplay{
			ID:          o.Storage.ID,
			StartEpoch:  o.Storage.StartEpoch,
			EndEpoch:    o.Storage.EndEpoch,
			StorageSize: FormatMB(o.Storage.StorageSize, 2),
		},
	}
}
