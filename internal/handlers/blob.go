package handlers

import (
	"DBWalrus/internal/config"
	"DBWalrus/internal/crypto"
	"DBWalrus/internal/service"
	"DBWalrus/internal/storage"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BlobHandler обрабатывает загрузку, чтение и удаление блобов.
type BlobHandler struct {
	Pipeline *service.BlobPipeline
	Logger   *zap.SugaredLogger
	Config   *config.Config
}

// NewBlobHandler создаёт хендлер блобов
func NewBlobHandler(pipeline *service.BlobPipeline, logger *zap.SugaredLogger, cfg *config.Config) *BlobHandler {
	return &BlobHandler{Pipeline: pipeline, Logger: logger, Config: cfg}
}

// UploadRequest — тело POST /upload-sql.
type UploadRequest struct {
	Data          json.RawMessage     `json:"data"`
	EncryptionKey *crypto.KeyMaterial `json:"encryptionKey,omitempty"`
}

// RetrieveResponse — ответ POST /retrieve-sql/{blobId}.
type RetrieveResponse struct {
	Success       bool    `json:"success"`
	BlobID        string  `json:"blobId"`
	RawData       string  `json:"rawData"`
	DecryptedData *string `json:"decryptedData"`
	Encrypted     bool    `json:"encrypted"`
	Message       string  `json:"message"`
}

// DeleteResponse — ответ DELETE /delete-blob/{blobObjectId}.
type DeleteResponse struct {
	Success      bool                    `json:"success"`
	BlobObjectID string                  `json:"blobObjectId"`
	Result       *storage.DeletionResult `json:"result"`
	Message      string                  `json:"message"`
}

func (h *BlobHandler) maxBody() int64 {
	return int64(h.Config.BlobMaxSizeMB)*1024*1024 + 1*1024*1024
}

// Upload сохраняет данные в хранилище, при наличии ключа — в зашифрованном виде
func (h *BlobHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody())

	var req UploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.Logger.Warnw("Upload: payload too large", "limit", tooLarge.Limit)
			writeError(w, http.StatusRequestEntityTooLarge, service.KindValidation, "Payload too large", "")
			return
		}
		h.Logger.Warnw("Upload: invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, service.KindValidation, "Invalid request body", err.Error())
		return
	}
	if service.IsFalsyJSON(req.Data) {
		writeError(w, http.StatusBadRequest, service.KindValidation, "Data is required in request body", "")
		return
	}
	if req.EncryptionKey != nil {
		if err := req.EncryptionKey.Validate(); err != nil {
			h.Logger.Warnw("Upload: invalid encryption key", "error", err)
			writeError(w, http.StatusBadRequest, service.KindValidation,
				"encryptionKey must be an object with key, salt, and iterations properties", err.Error())
			return
		}
	}

	// запись доводится до конца, даже если клиент отключился
	rec, err := h.Pipeline.Save(context.WithoutCancel(r.Context()), req.Data, req.EncryptionKey)
	if err != nil {
		h.Logger.Errorw("Upload: failed to save blob", "error", err)
		writeServiceError(w, err, "Failed to upload SQL data")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// Retrieve читает блоб и расшифровывает его, если в теле передан ключ
func (h *BlobHandler) Retrieve(w http.ResponseWriter, r *http.Request) {
	blobID := chi.URLParam(r, "blobId")
	if blobID == "" {
		writeError(w, http.StatusBadRequest, service.KindValidation, "Blob ID is required", "")
		return
	}

	key, err := decryptionKeyFromBody(http.MaxBytesReader(w, r.Body, h.maxBody()))
	if errors.Is(err, errMissingKey) {
		h.Logger.Warnw("Retrieve: encryption key without key value", "blob_id", blobID)
		writeError(w, http.StatusBadRequest, service.KindDecryption, "Failed to decrypt data", service.DecryptFailedDetail)
		return
	}
	if err != nil {
		h.Logger.Warnw("Retrieve: invalid request body", "blob_id", blobID, "error", err)
		writeError(w, http.StatusBadRequest, service.KindValidation, "Invalid request body", err.Error())
		return
	}

	res, err := h.Pipeline.Retrieve(r.Context(), blobID, key)
	if err != nil {
		h.Logger.Errorw("Retrieve: failed", "blob_id", blobID, "error", err)
		writeServiceError(w, err, "Failed to retrieve SQL data")
		return
	}
	writeJSON(w, http.StatusOK, RetrieveResponse{
		Success:       true,
		BlobID:        blobID,
		RawData:       res.RawData,
		DecryptedData: res.DecryptedData,
		Encrypted:     key != "",
		Message:       "SQL data retrieved successfully from Walrus",
	})
}

// Delete удаляет объект блоба
func (h *BlobHandler) Delete(w http.ResponseWriter, r *http.Request) {
	objectID := chi.URLParam(r, "blobObjectId")
	if objectID == "" {
		writeError(w, http.StatusBadRequest, service.KindValidation, "Blob object ID is required", "")
		return
	}

	res, err := h.Pipeline.Delete(context.WithoutCancel(r.Context()), objectID)
	if err != nil {
		h.Logger.Errorw("Delete: failed", "blob_object_id", objectID, "error", err)
		writeServiceError(w, err, "Failed to delete blob")
		return
	}
	writeJSON(w, http.StatusOK, DeleteResponse{
		Success:      true,
		BlobObjectID: objectID,
		Result:       res,
		Message:      "Blob deleted successfully from Walrus",
	})
}

// errMissingKey — encryptionKey передан, но значения ключа в нём нет.
var errMissingKey = errors.New("encryptionKey has no key")

// decryptionKeyFromBody достаёт ключ из {"encryptionKey": {"key": "..."}} или {"encryptionKey": "..."}.
// Пустое тело и ложный encryptionKey (null, false, 0, "") означают чтение без расшифровки.
func decryptionKeyFromBody(body io.Reader) (string, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return "", nil
	}
	var req struct {
		EncryptionKey json.RawMessage `json:"encryptionKey"`
	}
	if err := json.Unmarshal(raw, &req); err != nil {
		return "", err
	}
	if service.IsFalsyJSON(req.EncryptionKey) {
		return "", nil
	}
	var key string
	if err := json.Unmarshal(req.EncryptionKey, &key); err == nil {
		return key, nil
	}
	var obj struct {
		Key *string `json:"key"`
	}
	if err := json.Unmarshal(req.EncryptionKey, &obj); err != nil {
		return "", errors.New("encryptionKey must be a string or an object with key")
	}
	if obj.Key == nil || *obj.Key == "" {
		return "", errMissingKey
	}
	return *obj.Key, nil
}
