package main

import (
	"DBWalrus/internal/config"
	"DBWalrus/internal/crypto"
	"DBWalrus/internal/handlers"
	"DBWalrus/internal/identity"
	"DBWalrus/internal/middleware"
	"DBWalrus/internal/repo"
	"DBWalrus/internal/service"
	"DBWalrus/internal/storage"
	"DBWalrus/internal/storage/walrus"
	"net/http"

	"go.uber.org/zap"
)

func main() {
	cfg := config.NewConfig()

	// создаём предустановленный регистратор zap
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}

	// делаем регистратор SugaredLogger
	sugar := logger.Sugar()
	middleware.SetLogger(sugar) // передаём логгер в middleware
	//сброс буфера логгера
	defer func() {
		if err := logger.Sync(); err != nil {
			sugar.Errorw("Failed to sync logger", "error", err)
		}
	}()

	if err := cfg.Validate(); err != nil {
		sugar.Fatalw("invalid configuration", "error", err)
	}

	// личность подписанта создаётся один раз и передаётся в конвейер
	signer, err := identity.Load(cfg.SignerKey, sugar)
	if err != nil {
		sugar.Fatalw("failed to load signer identity", "error", err)
	}

	store, err := newStore(cfg)
	if err != nil {
		sugar.Fatalw("failed to initialize blob store", "backend", cfg.StoreBackend, "error", err)
	}

	pipeline := service.NewBlobPipeline(store, signer, sugar, service.Options{
		Retry: cfg.RetryPolicy(),
		Write: cfg.WriteOptions(),
	})

	h := handlers.NewHandler(pipeline, crypto.NewKeyDeriver(nil), sugar, cfg)

	addr := cfg.BaseURL

	sugar.Infow(
		"Starting server",
		"addr", addr,
	)

	sugar.Infow("Config",
		"Network", cfg.Network,
		"StoreBackend", cfg.StoreBackend,
		"PublisherURL", cfg.PublisherURL,
		"AggregatorURL", cfg.AggregatorURL,
		"MaxRetries", cfg.MaxRetries,
		"RetryDelayMS", cfg.RetryDelayMS,
		"Address", signer.Address(),
		"AuthEnabled", cfg.AuthSecret != "",
	)

	if err := http.ListenAndServe(addr, h.Router); err != nil {
		sugar.Fatalw("Server failed", "error", err)
	}
}

func newStore(cfg *config.Config) (storage.Store, error) {
	if cfg.StoreBackend == config.BackendDB {
		gormDB, err := repo.InitDB(cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		return repo.NewBlobRepository(gormDB), nil
	}
	return walrus.New(cfg.PublisherURL, cfg.AggregatorURL, walrus.WithCLI(cfg.WalrusCLI)), nil
}
