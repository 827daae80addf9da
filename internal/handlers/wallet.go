package handlers

import (
	"DBWalrus/internal/config"
	"DBWalrus/internal/storage"
	"net/http"
)

type WalletHandler struct {
	Signer storage.Signer
	Config *config.Config
}

func NewWalletHandler(signer storage.Signer, cfg *config.Config) *WalletHandler {
	return &WalletHandler{Signer: signer, Config: cfg}
}

func (h *WalletHandler) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("DBWalrus - SQL Data Blob Storage on Walrus"))
}

// Info отдаёт адрес подписанта и сеть
func (h *WalletHandler) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"address": h.Signer.Address(),
		"network": h.Config.Network,
		"store":   h.Config.StoreBackend,
		"message": "Wallet information for Walrus operations",
	})
}
