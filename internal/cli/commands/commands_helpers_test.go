package commands

import (
	"DBWalrus/internal/config"
	"DBWalrus/internal/crypto"
	"DBWalrus/internal/handlers"
	"DBWalrus/internal/retry"
	"DBWalrus/internal/service"
	"DBWalrus/internal/storage"
	"bytes"
	"context"
	"fmt"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"go.uber.org/zap"
)

// memStore — хранилище блобов в памяти для тестового сервера.
type memStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func (s *memStore) Write(_ context.Context, data []byte, _ storage.WriteOptions, _ storage.Signer) (storage.WriteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := fmt.Sprintf("B%d", len(s.blobs)+1)
	s.blobs[id] = append([]byte(nil), data...)
	return storage.WriteResult{BlobID: id, Object: storage.BlobObject{ID: "0x" + id, BlobID: id, Size: int64(len(data))}}, nil
}

func (s *memStore) Read(_ context.Context, blobID string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blobs[blobID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return b, nil
}

func (s *memStore) Delete(_ context.Context, objectID string, _ storage.Signer) (storage.DeletionResult, error) {
	return storage.DeletionResult{ObjectID: objectID}, nil
}

type addr string

func (a addr) Address() string { return string(a) }

// newTestEnv поднимает настоящий HTTP-сервер поверх хранилища в памяти
// и возвращает конфиг клиента, у которого база и токен лежат в temp.
func newTestEnv(t *testing.T, authSecret string) (*config.Config, *memStore) {
	t.Helper()
	dir := t.TempDir()
	st := &memStore{blobs: map[string][]byte{}}
	logger := zap.NewNop().Sugar()
	srvCfg := &config.Config{Network: "testnet", AuthSecret: authSecret, BlobMaxSizeMB: 1}
	p := service.NewBlobPipeline(st, addr("0xabc"), logger, service.Options{Retry: retry.Policy{MaxAttempts: 1}})
	ts := httptest.NewServer(handlers.NewHandler(p, crypto.NewKeyDeriver(nil), logger, srvCfg).Router)
	t.Cleanup(ts.Close)

	return &config.Config{
		ServerURL:    ts.URL,
		AuthSecret:   authSecret,
		ClientDBPath: filepath.Join(dir, "client.sqlite"),
		TokenFile:    filepath.Join(dir, "token"),
	}, st
}

// перехват stdout на время теста
func withStdoutCapture(t *testing.T, fn func()) string {
	t.Helper()
	old := Out
	var buf bytes.Buffer
	Out = &buf
	defer func() { Out = old }()
	fn()
	return buf.String()
}

func withStdin(t *testing.T, s string) {
	t.Helper()
	old := In
	In = bytes.NewBufferString(s)
	t.Cleanup(func() { In = old })
}
