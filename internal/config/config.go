package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"DBWalrus/internal/retry"
	"DBWalrus/internal/storage"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

const (
	BackendWalrus = "walrus"
	BackendDB     = "db"
)

type Config struct {
	// Server-side settings
	Network        string `env:"NETWORK"`
	StoreBackend   string `env:"STORE_BACKEND"`
	PublisherURL   string `env:"WALRUS_PUBLISHER_URL"`
	AggregatorURL  string `env:"WALRUS_AGGREGATOR_URL"`
	WalrusCLI      string `env:"WALRUS_CLI"`
	StoreEpochs    int    `env:"STORE_EPOCHS"`
	StoreDeletable bool   `env:"STORE_DELETABLE" envDefault:"true"`
	DatabaseDSN    string `env:"DATABASE_URI"`
	SignerKey      string `env:"SIGNER_KEY"`
	MaxRetries     int    `env:"MAX_RETRIES"`
	RetryDelayMS   int    `env:"RETRY_DELAY_MS" envDefault:"1000"`
	AuthSecret     string `env:"AUTH_SECRET"`
	BlobMaxSizeMB  int    `env:"BLOB_MAX_MB"`

	// Shared settings
	BaseURL     string `env:"BASE_URL"`
	EnableHTTPS bool   `env:"ENABLE_HTTPS"`

	// Client-side settings
	ServerURL    string `env:"-"`
	ClientDBPath string `env:"CLIENT_DB_PATH"`
	TokenFile    string `env:"TOKEN_FILE"`
	Version      bool   `env:"-"` // show client version and exit (flag only)
}

func NewConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	_ = env.Parse(cfg)

	// Server flags
	flag.StringVar(&cfg.Network, "network", cfg.Network, "имя сети, сообщаемое в /wallet-info")
	flag.StringVar(&cfg.StoreBackend, "store", cfg.StoreBackend, "бэкенд хранилища: walrus | db")
	flag.StringVar(&cfg.PublisherURL, "publisher", cfg.PublisherURL, "URL паблишера Walrus")
	flag.StringVar(&cfg.AggregatorURL, "aggregator", cfg.AggregatorURL, "URL агрегатора Walrus")
	flag.StringVar(&cfg.WalrusCLI, "walrus-cli", cfg.WalrusCLI, "путь к walrus CLI для удаления блобов")
	flag.IntVar(&cfg.StoreEpochs, "epochs", cfg.StoreEpochs, "срок хранения блоба в эпохах")
	flag.BoolVar(&cfg.StoreDeletable, "deletable", cfg.StoreDeletable, "помечать блобы как удаляемые")
	flag.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "строка подключения к БД (бэкенд db)")
	flag.StringVar(&cfg.SignerKey, "signer-key", cfg.SignerKey, "секрет ключа подписанта Ed25519 (base64)")
	flag.IntVar(&cfg.MaxRetries, "max-retries", cfg.MaxRetries, "число попыток записи блоба")
	flag.IntVar(&cfg.RetryDelayMS, "retry-delay", cfg.RetryDelayMS, "базовая задержка между попытками, мс")
	flag.StringVar(&cfg.AuthSecret, "auth-secret", cfg.AuthSecret, "секрет для подписи JWT; пустой — без авторизации")
	flag.IntVar(&cfg.BlobMaxSizeMB, "blob-max-mb", cfg.BlobMaxSizeMB, "лимит тела запроса, МБ")
	// Shared/client flags
	flag.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "address of the DBWalrus server (host:port)")
	flag.BoolVar(&cfg.EnableHTTPS, "https", cfg.EnableHTTPS, "enable HTTPS (client: prefer https scheme for BaseURL)")
	// Client flags
	flag.StringVar(&cfg.ClientDBPath, "client-db", cfg.ClientDBPath, "path to client SQLite history DB")
	flag.StringVar(&cfg.TokenFile, "token-file", cfg.TokenFile, "path to auth token file (client)")
	flag.BoolVar(&cfg.Version, "version", cfg.Version, "Show client version and exit")

	flag.Parse()

	cfg.applyDefaults()
	return cfg
}

func (cfg *Config) applyDefaults() {
	if cfg.Network == "" {
		cfg.Network = "testnet"
	}
	if cfg.StoreBackend == "" {
		cfg.StoreBackend = BackendWalrus
	}
	if cfg.PublisherURL == "" {
		cfg.PublisherURL = "https://publisher.walrus-" + cfg.Network + ".walrus.space"
	}
	if cfg.AggregatorURL == "" {
		cfg.AggregatorURL = "https://aggregator.walrus-" + cfg.Network + ".walrus.space"
	}
	if cfg.StoreEpochs <= 0 {
		cfg.StoreEpochs = 3
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 1
	}
	if cfg.RetryDelayMS < 0 {
		cfg.RetryDelayMS = 0
	}
	if cfg.BlobMaxSizeMB <= 0 {
		cfg.BlobMaxSizeMB = 10
	}

	// validate BaseURL: must be in "address:port" (no scheme, no path). Otherwise use default.
	hostPortRe := regexp.MustCompile(`^[A-Za-z0-9\.\-]+:\d{1,5}$`)
	if !hostPortRe.MatchString(cfg.BaseURL) {
		cfg.BaseURL = "localhost:39260"
	}
	if cfg.EnableHTTPS {
		cfg.ServerURL = "https://" + cfg.BaseURL
	} else {
		cfg.ServerURL = "http://" + cfg.BaseURL
	}

	// Fill client defaults if empty
	home, _ := os.UserHomeDir()
	if cfg.ClientDBPath == "" {
		cfg.ClientDBPath = filepath.Join(home, "dbwalrus.db")
	}
	if cfg.TokenFile == "" {
		cfg.TokenFile = filepath.Join(home, ".dbwalrus_token")
	}
}

// Validate проверяет серверные настройки.
func (cfg *Config) Validate() error {
	switch cfg.StoreBackend {
	case BackendWalrus, BackendDB:
	default:
		return fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
	if cfg.StoreBackend == BackendWalrus && (cfg.PublisherURL == "" || cfg.AggregatorURL == "") {
		return errors.New("walrus backend requires publisher and aggregator URLs")
	}
	return cfg.RetryPolicy().Validate()
}

// RetryPolicy строит политику повторов записи.
func (cfg *Config) RetryPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts: cfg.MaxRetries,
		BaseDelay:   time.Duration(cfg.RetryDelayMS) * time.Millisecond,
	}
}

// WriteOptions строит параметры записи блоба.
func (cfg *Config) WriteOptions() storage.WriteOptions {
	return storage.WriteOptions{Epochs: cfg.StoreEpochs, Deletable: cfg.StoreDeletable}
}
