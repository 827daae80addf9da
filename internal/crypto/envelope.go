package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// IVSize — длина вектора инициализации AES-CBC.
const IVSize = aes.BlockSize

const delimiter = ":"

var (
	// ErrMalformedEnvelope — строка конверта структурно некорректна.
	ErrMalformedEnvelope = errors.New("malformed envelope")
	// ErrDecryptionFailed — неверный ключ или повреждённый шифртекст.
	// Причина намеренно не уточняется.
	ErrDecryptionFailed = errors.New("decryption failed")
)

// Metadata — публичные параметры вывода ключа, встраиваемые в конверт.
type Metadata struct {
	Salt       string `json:"salt"`
	Iterations int    `json:"iterations"`
}

// Envelope — самоописывающий шифртекст: всё, кроме ключа.
//
// Формат на проводе:
//
//	BASE64(metadata-json) ":" HEX(iv) ":" BASE64(aes-cbc-pkcs7)
//
// Аутентификации (MAC) нет: успешное снятие паддинга не доказывает целостность.
type Envelope struct {
	Metadata   Metadata
	IV         []byte
	Ciphertext []byte
}

// String кодирует конверт в строку формата выше.
func (e Envelope) String() string {
	meta, _ := json.Marshal(e.Metadata)
	return strings.Join([]string{
		base64.StdEncoding.EncodeToString(meta),
		hex.EncodeToString(e.IV),
		base64.StdEncoding.EncodeToString(e.Ciphertext),
	}, delimiter)
}

// ParseEnvelope разбирает строку конверта. Любая структурная ошибка
// возвращается как ErrMalformedEnvelope.
func ParseEnvelope(s string) (Envelope, error) {
	parts := strings.Split(s, delimiter)
	if len(parts) != 3 {
		return Envelope{}, fmt.Errorf("%w: expected 3 parts, got %d", ErrMalformedEnvelope, len(parts))
	}

	rawMeta, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return Envelope{}, fmt.Errorf("%w: metadata encoding", ErrMalformedEnvelope)
	}
	var meta Metadata
	if err := json.Unmarshal(rawMeta, &meta); err != nil {
		return Envelope{}, fmt.Errorf("%w: metadata json", ErrMalformedEnvelope)
	}

	iv, err := hex.DecodeString(parts[1])
	if err != nil || len(iv) != IVSize {
		return Envelope{}, fmt.Errorf("%w: iv", ErrMalformedEnvelope)
	}

	ct, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return Envelope{}, fmt.Errorf("%w: ciphertext encoding", ErrMalformedEnvelope)
	}

	return Envelope{Metadata: meta, IV: iv, Ciphertext: ct}, nil
}

// Codec шифрует и расшифровывает полезную нагрузку в конверт.
type Codec struct {
	rand io.Reader
}

// NewCodec создаёт кодек. Если r == nil, IV берутся из crypto/rand.
func NewCodec(r io.Reader) *Codec {
	if r == nil {
		r = rand.Reader
	}
	return &Codec{rand: r}
}

// Seal шифрует plain ключом km и возвращает конверт. IV новый на каждый вызов.
func (c *Codec) Seal(plain []byte, km KeyMaterial) (Envelope, error) {
	key, err := hex.DecodeString(km.Key)
	if err != nil {
		return Envelope{}, fmt.Errorf("%w: key is not hex", ErrInvalidKeyMaterial)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrInvalidKeyMaterial, err)
	}

	iv := make([]byte, IVSize)
	if _, err := io.ReadFull(c.rand, iv); err != nil {
		return Envelope{}, fmt.Errorf("read iv: %w", err)
	}

	padded := pkcs7Pad(plain, block.BlockSize())
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)

	return Envelope{
		Metadata:   Metadata{Salt: km.Salt, Iterations: km.Iterations},
		IV:         iv,
		Ciphertext: out,
	}, nil
}

// Open расшифровывает конверт hex-ключом.
func (c *Codec) Open(env Envelope, keyHex string) ([]byte, error) {
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	ct := env.Ciphertext
	if len(ct) == 0 || len(ct)%block.BlockSize() != 0 || len(env.IV) != block.BlockSize() {
		return nil, ErrDecryptionFailed
	}

	out := make([]byte, len(ct))
	cipher.NewCBCDecrypter(block, env.IV).CryptBlocks(out, ct)

	plain, ok := pkcs7Unpad(out, block.BlockSize())
	if !ok {
		return nil, ErrDecryptionFailed
	}
	return plain, nil
}

// Encrypt шифрует plain и возвращает строку конверта.
func (c *Codec) Encrypt(plain []byte, km KeyMaterial) (string, error) {
	env, err := c.Seal(plain, km)
	if err != nil {
		return "", err
	}
	return env.String(), nil
}

// Decrypt разбирает строку конверта и расшифровывает её.
func (c *Codec) Decrypt(envelope string, keyHex string) ([]byte, error) {
	env, err := ParseEnvelope(envelope)
	if err != nil {
		return nil, err
	}
	return c.Open(env, keyHex)
}

func pkcs7Pad(b []byte, size int) []byte {
	n := size - len(b)%size
	return append(append(make([]byte, 0, len(b)+n), b...), bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(b []byte, size int) ([]byte, bool) {
	if len(b) == 0 || len(b)%size != 0 {
		return nil, false
	}
	n := int(b[len(b)-1])
	if n == 0 || n > size {
		return nil, false
	}
	for _, p := range b[len(b)-n:] {
		if int(p) != n {
			return nil, false
		}
	}
	return b[:len(b)-n], true
}
