package auth

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"DBWalrus/internal/middleware"
)

// DefaultTTL is the lifetime of tokens minted by the CLI.
const DefaultTTL = 24 * time.Hour

// SaveToken writes token to the auth token file, creating parent directories.
func SaveToken(path, token string) error {
	if path == "" {
		return errors.New("empty token file path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(token), 0o600)
}

// LoadToken reads token from the auth token file.
// A missing file is not an error: the server may run without auth.
func LoadToken(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

// Mint issues a bearer token for subject signed with the shared server secret.
func Mint(subject, secret string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("AUTH_SECRET is not set")
	}
	if subject == "" {
		return "", errors.New("empty subject")
	}
	return middleware.IssueToken(subject, secret, ttl)
}
