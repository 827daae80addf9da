package commands

import (
	"DBWalrus/internal/cli/api"
	"DBWalrus/internal/cli/bootstrap"
	"DBWalrus/internal/cli/repo"
	"DBWalrus/internal/config"
	"DBWalrus/internal/crypto"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

type retrieveResponse struct {
	RawData       string  `json:"rawData"`
	DecryptedData *string `json:"decryptedData"`
	Encrypted     bool    `json:"encrypted"`
}

type getCmd struct{}

func (getCmd) Name() string { return "get" }
func (getCmd) Description() string {
	return "Retrieve a blob; key defaults to the one saved in history"
}
func (getCmd) Usage() string { return "get <blobId> [key]" }

func (getCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return ErrUsage
	}
	blobID := args[0]
	key := ""
	if len(args) == 2 {
		key = args[1]
	} else {
		k, err := keyFromHistory(cfg, blobID)
		if err != nil {
			return err
		}
		key = k
	}

	var payload any
	if key != "" {
		payload = map[string]any{"encryptionKey": map[string]string{"key": key}}
	}
	endpoint := api.Endpoint(cfg.ServerURL, "/retrieve-sql/"+url.PathEscape(blobID))
	resp, body, err := api.PostJSON(ctx, endpoint, payload, "")
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return api.ServerError(resp.StatusCode, body)
	}
	var rr retrieveResponse
	if err := json.Unmarshal(body, &rr); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if rr.DecryptedData != nil {
		fmt.Fprintln(Out, *rr.DecryptedData)
		return nil
	}
	fmt.Fprintln(Out, rr.RawData)
	return nil
}

// keyFromHistory ищет ключ загрузки в локальной истории. Отсутствие записи — не ошибка.
func keyFromHistory(cfg *config.Config, blobID string) (string, error) {
	history, done, err := bootstrap.OpenHistory(cfg)
	if err != nil {
		return "", err
	}
	defer done()
	u, err := history.GetByBlobID(blobID)
	if errors.Is(err, repo.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if !u.Encrypted || u.KeyJSON == "" {
		return "", nil
	}
	var km crypto.KeyMaterial
	if err := json.Unmarshal([]byte(u.KeyJSON), &km); err != nil {
		return "", fmt.Errorf("stored key for %s: %w", blobID, err)
	}
	return km.Key, nil
}

func init() { RegisterCmd(getCmd{}) }
