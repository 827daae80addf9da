package handlers

import (
	"DBWalrus/internal/config"
	"DBWalrus/internal/crypto"
	"DBWalrus/internal/middleware"
	"DBWalrus/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Handler struct {
	Router chi.Router
}

// NewHandler разводящий для хендлеров
func NewHandler(
	pipeline *service.BlobPipeline,
	deriver *crypto.KeyDeriver,
	logger *zap.SugaredLogger,
	config *config.Config,
) *Handler {
	r := chi.NewRouter()

	// WithRecover внутри WithGzip: ответ о панике пишется в gzip-поток до его закрытия
	r.Use(middleware.WithGzip)
	r.Use(middleware.WithLogging)
	r.Use(middleware.WithRecover)
	r.Use(middleware.WithAuth(config.AuthSecret))

	// Handlers
	blobHandler := NewBlobHandler(pipeline, logger, config)
	keyHandler := NewKeyHandler(deriver, logger)
	walletHandler := NewWalletHandler(pipeline.Signer(), config)

	r.Get("/", walletHandler.Index)
	r.Get("/wallet-info", walletHandler.Info)

	r.Get("/generate-encryption-key", keyHandler.Generate("Encryption key generated successfully"))
	r.Get("/generate-advanced-encryption-key", keyHandler.Generate("Advanced encryption key generated successfully"))

	// retrieve не меняет хранилище, но принимает ключ в теле, поэтому POST
	r.Post("/retrieve-sql/{blobId}", blobHandler.Retrieve)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(config.AuthSecret))
		r.Post("/upload-sql", blobHandler.Upload)
		r.Delete("/delete-blob/{blobObjectId}", blobHandler.Delete)
	})

	return &Handler{Router: r}
}
