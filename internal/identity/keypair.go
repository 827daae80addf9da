// Package identity загружает ключевую пару подписанта и вычисляет его адрес.
package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
)

// ed25519Flag — байт схемы подписи Ed25519 в адресе и в экспортированном ключе.
const ed25519Flag byte = 0x00

// Keypair — ключевая пара Ed25519 подписанта. После создания не изменяется.
type Keypair struct {
	priv    ed25519.PrivateKey
	address string
}

// FromSeed строит ключевую пару из 32-байтового seed.
func FromSeed(seed []byte) (*Keypair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return &Keypair{priv: priv, address: addressOf(priv.Public().(ed25519.PublicKey))}, nil
}

// FromBase64 разбирает секрет в base64: 33 байта с флагом схемы или голые 32 байта.
func FromBase64(secret string) (*Keypair, error) {
	raw, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return nil, fmt.Errorf("decode secret: %w", err)
	}
	if len(raw) == ed25519.SeedSize+1 {
		if raw[0] != ed25519Flag {
			return nil, errors.New("secret is not an ed25519 key")
		}
		raw = raw[1:]
	}
	return FromSeed(raw)
}

// Generate создаёт новую случайную ключевую пару.
func Generate() (*Keypair, error) {
	seed := make([]byte, ed25519.SeedSize)
	if _, err := rand.Read(seed); err != nil {
		return nil, err
	}
	return FromSeed(seed)
}

// Load загружает ключ из секрета. Если секрет пуст или некорректен,
// пишет предупреждение и создаёт новую ключевую пару.
func Load(secret string, logger *zap.SugaredLogger) (*Keypair, error) {
	if secret != "" {
		kp, err := FromBase64(secret)
		if err == nil {
			return kp, nil
		}
		logger.Warnw("Failed to load signer key, falling back to a new keypair", "error", err)
	} else {
		logger.Warnw("Signer key is not configured, generating a new keypair")
	}
	return Generate()
}

// Address возвращает адрес вида 0x + hex(blake2b-256(flag || pubkey)).
func (k *Keypair) Address() string { return k.address }

// PublicKey возвращает открытый ключ.
func (k *Keypair) PublicKey() ed25519.PublicKey { return k.priv.Public().(ed25519.PublicKey) }

// Sign подписывает сообщение.
func (k *Keypair) Sign(msg []byte) []byte { return ed25519.Sign(k.priv, msg) }

// ExportBase64 возвращает секрет в формате, который принимает FromBase64.
func (k *Keypair) ExportBase64() string {
	return base64.StdEncoding.EncodeToString(append([]byte{ed25519Flag}, k.priv.Seed()...))
}

func addressOf(pub ed25519.PublicKey) string {
	sum := blake2b.Sum256(append([]byte{ed25519Flag}, pub...))
	return "0x" + hex.EncodeToString(sum[:])
}
