package crypto

import (
	"crypto/rand"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math/big"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// KeySize — длина производного ключа AES-256 (байт).
	KeySize = 32
	// SaltSize — длина соли (байт).
	SaltSize = 32
	// EntropySize — объём случайной энтропии, из которой выводится ключ (байт).
	EntropySize = 64

	// MinIterations и MaxIterations задают полуинтервал [Min, Max) числа итераций PBKDF2.
	MinIterations = 100_000
	MaxIterations = 150_000
)

// ErrInvalidKeyMaterial возвращается, если KeyMaterial не прошёл проверку формата.
var ErrInvalidKeyMaterial = errors.New("invalid key material")

// KeyMaterial — производный симметричный ключ и публичные параметры его вывода.
// Сервис никогда не хранит KeyMaterial: он возвращается вызывающему.
type KeyMaterial struct {
	Key        string `json:"key"`
	Salt       string `json:"salt"`
	Iterations int    `json:"iterations"`
}

// Validate проверяет, что ключ и соль — 64 hex-символа, а итераций больше нуля.
func (k KeyMaterial) Validate() error {
	if err := checkHex(k.Key, KeySize); err != nil {
		return fmt.Errorf("%w: key %v", ErrInvalidKeyMaterial, err)
	}
	if err := checkHex(k.Salt, SaltSize); err != nil {
		return fmt.Errorf("%w: salt %v", ErrInvalidKeyMaterial, err)
	}
	if k.Iterations <= 0 {
		return fmt.Errorf("%w: iterations must be positive", ErrInvalidKeyMaterial)
	}
	return nil
}

func checkHex(s string, size int) error {
	if len(s) != size*2 {
		return fmt.Errorf("must be %d hex characters, got %d", size*2, len(s))
	}
	if _, err := hex.DecodeString(s); err != nil {
		return errors.New("is not valid hex")
	}
	return nil
}

// KeyDeriver генерирует KeyMaterial из случайной энтропии через PBKDF2-HMAC-SHA512.
type KeyDeriver struct {
	rand io.Reader
}

// NewKeyDeriver создаёт генератор ключей. Если r == nil, используется crypto/rand.
func NewKeyDeriver(r io.Reader) *KeyDeriver {
	if r == nil {
		r = rand.Reader
	}
	return &KeyDeriver{rand: r}
}

// Generate возвращает свежий ключ вместе с солью и числом итераций.
// Ошибка возможна только при сбое источника случайности.
func (d *KeyDeriver) Generate() (KeyMaterial, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(d.rand, salt); err != nil {
		return KeyMaterial{}, fmt.Errorf("read salt: %w", err)
	}
	entropy := make([]byte, EntropySize)
	if _, err := io.ReadFull(d.rand, entropy); err != nil {
		return KeyMaterial{}, fmt.Errorf("read entropy: %w", err)
	}
	spread, err := rand.Int(d.rand, big.NewInt(MaxIterations-MinIterations))
	if err != nil {
		return KeyMaterial{}, fmt.Errorf("pick iterations: %w", err)
	}
	iterations := MinIterations + int(spread.Int64())

	// паролем служит hex-представление энтропии
	key := pbkdf2.Key([]byte(hex.EncodeToString(entropy)), salt, iterations, KeySize, sha512.New)

	return KeyMaterial{
		Key:        hex.EncodeToString(key),
		Salt:       hex.EncodeToString(salt),
		Iterations: iterations,
	}, nil
}

// GenerateKey — Generate с crypto/rand.
func GenerateKey() (KeyMaterial, error) {
	return NewKeyDeriver(nil).Generate()
}
