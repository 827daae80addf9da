package commands

import (
	"DBWalrus/internal/cli/api"
	"DBWalrus/internal/cli/auth"
	"DBWalrus/internal/cli/bootstrap"
	"DBWalrus/internal/cli/model"
	"DBWalrus/internal/config"
	"DBWalrus/internal/crypto"
	"DBWalrus/internal/service"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
)

type uploadRequest struct {
	Data          json.RawMessage     `json:"data"`
	EncryptionKey *crypto.KeyMaterial `json:"encryptionKey,omitempty"`
}

type uploadCmd struct{}

func (uploadCmd) Name() string        { return "upload" }
func (uploadCmd) Description() string { return "Upload SQL/JSON data from file or stdin" }
func (uploadCmd) Usage() string       { return "upload <file|-> [--encrypt]" }

func (uploadCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	var source string
	encrypt := false
	for _, a := range args {
		switch {
		case a == "--encrypt":
			encrypt = true
		case source == "":
			source = a
		default:
			return ErrUsage
		}
	}
	if source == "" {
		return ErrUsage
	}

	content, err := readSource(source)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(content)) == 0 {
		return fmt.Errorf("%s: no data", source)
	}

	req := uploadRequest{Data: asJSONData(content)}
	if encrypt {
		// ключ генерируется на клиенте и хранится только в локальной истории
		km, err := crypto.GenerateKey()
		if err != nil {
			return err
		}
		req.EncryptionKey = &km
	}

	token, err := auth.LoadToken(cfg.TokenFile)
	if err != nil {
		return fmt.Errorf("load token: %w", err)
	}
	resp, body, err := api.PostJSON(ctx, api.Endpoint(cfg.ServerURL, "/upload-sql"), req, token)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return api.ServerError(resp.StatusCode, body)
	}
	var rec service.BlobRecord
	if err := json.Unmarshal(body, &rec); err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	u := model.Upload{
		BlobID:    rec.BlobID,
		ObjectID:  rec.BlobObject.ID,
		Size:      rec.BlobObject.Size,
		Encrypted: req.EncryptionKey != nil,
		Source:    source,
	}
	if req.EncryptionKey != nil {
		kb, err := json.Marshal(req.EncryptionKey)
		if err != nil {
			return err
		}
		u.KeyJSON = string(kb)
	}

	history, done, err := bootstrap.OpenHistory(cfg)
	if err != nil {
		return err
	}
	defer done()
	if _, err := history.Add(u); err != nil {
		return fmt.Errorf("save history: %w", err)
	}

	fmt.Fprintf(Out, "blob id:    %s\n", rec.BlobID)
	fmt.Fprintf(Out, "object id:  %s\n", rec.BlobObject.ID)
	fmt.Fprintf(Out, "size:       %s\n", rec.BlobObject.Size)
	fmt.Fprintf(Out, "storage:    %s\n", rec.BlobObject.Storage.StorageSize)
	fmt.Fprintf(Out, "time:       %.3fs\n", rec.TimeSpent)
	if u.Encrypted {
		fmt.Fprintf(Out, "key:        %s\n", req.EncryptionKey.Key)
	}
	return nil
}

func readSource(source string) ([]byte, error) {
	if source == "-" {
		return io.ReadAll(In)
	}
	return os.ReadFile(source)
}

// asJSONData отправляет валидный JSON как есть, остальное — строкой.
func asJSONData(content []byte) json.RawMessage {
	if json.Valid(content) {
		return json.RawMessage(bytes.TrimSpace(content))
	}
	b, _ := json.Marshal(string(content))
	return b
}

func init() { RegisterCmd(uploadCmd{}) }
