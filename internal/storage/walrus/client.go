// Package walrus — хранилище блобов поверх HTTP API паблишера и агрегатора Walrus.
package walrus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"DBWalrus/internal/storage"
)

// Runner запускает внешнюю команду и возвращает её stdout.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Client реализует storage.Store.
type Client struct {
	publisher  string
	aggregator string
	cli        string
	http       *http.Client
	run        Runner
}

var _ storage.Store = (*Client)(nil)

// Option настраивает Client.
type Option func(*Client)

// WithHTTPClient подменяет HTTP-клиент.
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.http = hc } }

// WithCLI задаёт путь к walrus CLI, через который выполняется удаление.
func WithCLI(path string) Option { return func(c *Client) { c.cli = path } }

// WithRunner подменяет запуск внешних команд.
func WithRunner(r Runner) Option { return func(c *Client) { c.run = r } }

// New создаёт клиента для указанных паблишера и агрегатора.
func New(publisherURL, aggregatorURL string, opts ...Option) *Client {
	c := &Client{
		publisher:  strings.TrimRight(publisherURL, "/"),
		aggregator: strings.TrimRight(aggregatorURL, "/"),
		http:       &http.Client{Timeout: 2 * time.Minute},
		run:        execRunner,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type storeResponse struct {
	NewlyCreated *struct {
		BlobObject blobObjectDTO `json:"blobObject"`
		Cost       int64         `json:"cost"`
	} `json:"newlyCreated"`
	AlreadyCertified *struct {
		BlobID   string `json:"blobId"`
		EndEpoch int64  `json:"endEpoch"`
		Object   string `json:"object"`
	} `json:"alreadyCertified"`
}

type blobObjectDTO struct {
	ID              string `json:"id"`
	RegisteredEpoch int64  `json:"registeredEpoch"`
	BlobID          string `json:"blobId"`
	Size            int64  `json:"size"`
	Deletable       bool   `json:"deletable"`
	Storage         struct {
		ID          string `json:"id"`
		StartEpoch  int64  `json:"startEpoch"`
		EndEpoch    int64  `json:"endEpoch"`
		StorageSize int64  `json:"storageSize"`
	} `json:"storage"`
}

// Write загружает данные через паблишер. Объект блоба передаётся на адрес подписанта.
func (c *Client) Write(ctx context.Context, data []byte, opts storage.WriteOptions, signer storage.Signer) (storage.WriteResult, error) {
	q := url.Values{}
	if opts.Epochs > 0 {
		q.Set("epochs", strconv.Itoa(opts.Epochs))
	}
	if opts.Deletable {
		q.Set("deletable", "true")
	}
	if signer != nil && signer.Address() != "" {
		q.Set("send_object_to", signer.Address())
	}
	endpoint := c.publisher + "/v1/blobs"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(data))
	if err != nil {
		return storage.WriteResult{}, err
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	body, err := c.do(req)
	if err != nil {
		return storage.WriteResult{}, fmt.Errorf("walrus store: %w", err)
	}

	var sr storeResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return storage.WriteResult{}, fmt.Errorf("walrus store: decode response: %w", err)
	}
	switch {
	case sr.NewlyCreated != nil:
		o := sr.NewlyCreated.BlobObject
		return storage.WriteResult{
			BlobID: o.BlobID,
			Object: storage.BlobObject{
				ID:              o.ID,
				BlobID:          o.BlobID,
				Size:            o.Size,
				RegisteredEpoch: o.RegisteredEpoch,
				Deletable:       o.Deletable,
				Storage: storage.StorageInfo{
					ID:          o.Storage.ID,
					StartEpoch:  o.Storage.StartEpoch,
					EndEpoch:    o.Storage.EndEpoch,
					StorageSize: o.Storage.StorageSize,
				},
			},
		}, nil
	case sr.AlreadyCertified != nil:
		ac := sr.AlreadyCertified
		return storage.WriteResult{
			BlobID: ac.BlobID,
			Object: storage.BlobObject{
				ID:      ac.Object,
				BlobID:  ac.BlobID,
				Size:    int64(len(data)),
				Storage: storage.StorageInfo{EndEpoch: ac.EndEpoch},
			},
		}, nil
	default:
		return storage.WriteResult{}, fmt.Errorf("walrus store: unexpected response %s", truncate(body))
	}
}

// Read читает блоб через агрегатор.
func (c *Client) Read(ctx context.Context, blobID string) ([]byte, error) {
	endpoint := c.aggregator + "/v1/blobs/" + url.PathEscape(blobID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	body, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("walrus read %s: %w", blobID, err)
	}
	return body, nil
}

// Delete удаляет объект блоба через walrus CLI. HTTP API паблишера удаление не поддерживает.
func (c *Client) Delete(ctx context.Context, objectID string, _ storage.Signer) (storage.DeletionResult, error) {
	if c.cli == "" {
		return storage.DeletionResult{}, fmt.Errorf("walrus delete: %w: no walrus CLI configured", storage.ErrUnsupported)
	}
	out, err := c.run(ctx, c.cli, "delete", "--object-ids", objectID, "--yes", "--json")
	if err != nil {
		return storage.DeletionResult{}, fmt.Errorf("walrus delete %s: %w", objectID, err)
	}
	res := storage.DeletionResult{ObjectID: objectID}
	var parsed []struct {
		BlobIdentity struct {
			BlobID string `json:"blobId"`
		} `json:"blobIdentity"`
	}
	if json.Unmarshal(out, &parsed) == nil && len(parsed) > 0 {
		res.BlobID = parsed[0].BlobIdentity.BlobID
	}
	return res, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, storage.ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(body))
	}
	return body, nil
}

func truncate(b []byte) string {
	const limit = 256
	s := strings.TrimSpace(string(b))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return out, nil
}
