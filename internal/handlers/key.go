package handlers

import (
	"DBWalrus/internal/crypto"
	"DBWalrus/internal/service"
	"net/http"

	"go.uber.org/zap"
)

// KeyHandler выдаёт свежие ключи шифрования. Сервис их не хранит.
type KeyHandler struct {
	Deriver *crypto.KeyDeriver
	Logger  *zap.SugaredLogger
}

func NewKeyHandler(deriver *crypto.KeyDeriver, logger *zap.SugaredLogger) *KeyHandler {
	return &KeyHandler{Deriver: deriver, Logger: logger}
}

type keyResponse struct {
	Success       bool               `json:"success"`
	EncryptionKey crypto.KeyMaterial `json:"encryptionKey"`
	Message       string             `json:"message"`
}

// Generate возвращает хендлер, генерирующий KeyMaterial с указанным сообщением
func (h *KeyHandler) Generate(message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		km, err := h.Deriver.Generate()
		if err != nil {
			h.Logger.Errorw("Failed to generate encryption key", "error", err)
			writeError(w, http.StatusInternalServerError, service.KindInternal, "Failed to generate encryption key", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, keyResponse{Success: true, EncryptionKey: km, Message: message})
	}
}
