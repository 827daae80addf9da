package handlers

import (
	"DBWalrus/internal/config"
	"DBWalrus/internal/crypto"
	"DBWalrus/internal/retry"
	"DBWalrus/internal/service"
	"DBWalrus/internal/storage"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeStore — хранилище в памяти с управляемыми ошибками.
type fakeStore struct {
	blobs     map[string][]byte
	writeErr  error
	deleteErr error
	writes    int
}

func newFakeStore() *fakeStore { return &fakeStore{blobs: map[string][]byte{}} }

func (s *fakeStore) Write(_ context.Context, data []byte, _ storage.WriteOptions, _ storage.Signer) (storage.WriteResult, error) {
	s.writes++
	if s.writeErr != nil {
		return storage.WriteResult{}, s.writeErr
	}
	id := fmt.Sprintf("blob-%d", len(s.blobs)+1)
	s.blobs[id] = append([]byte(nil), data...)
	return storage.WriteResult{
		BlobID: id,
		Object: storage.BlobObject{
			ID:     "0xobj-" + id,
			BlobID: id,
			Size:   int64(len(data)),
			Storage: storage.StorageInfo{
				StorageSize: 66034000,
			},
		},
	}, nil
}

func (s *fakeStore) Read(_ context.Context, blobID string) ([]byte, error) {
	b, ok := s.blobs[blobID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return b, nil
}

func (s *fakeStore) Delete(_ context.Context, objectID string, _ storage.Signer) (storage.DeletionResult, error) {
	if s.deleteErr != nil {
		return storage.DeletionResult{}, s.deleteErr
	}
	return storage.DeletionResult{ObjectID: objectID, Digest: "D1"}, nil
}

type fixedSigner string

func (s fixedSigner) Address() string { return string(s) }

func testConfig() *config.Config {
	return &config.Config{Network: "testnet", StoreBackend: config.BackendWalrus, BlobMaxSizeMB: 1}
}

func newTestRouter(t *testing.T, st storage.Store, cfg *config.Config) http.Handler {
	t.Helper()
	logger := zap.NewNop().Sugar()
	p := service.NewBlobPipeline(st, fixedSigner("0xabc"), logger, service.Options{
		Retry: retry.Policy{MaxAttempts: 1},
		Write: storage.WriteOptions{Epochs: 3, Deletable: true},
	})
	return NewHandler(p, crypto.NewKeyDeriver(nil), logger, cfg).Router
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, hdr ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeMap(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &m), rr.Body.String())
	return m
}
