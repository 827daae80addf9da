package commands

import (
	"DBWalrus/internal/cli/api"
	"DBWalrus/internal/config"
	"DBWalrus/internal/crypto"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

type keygenCmd struct{}

func (keygenCmd) Name() string        { return "keygen" }
func (keygenCmd) Description() string { return "Generate an encryption key (server or --local)" }
func (keygenCmd) Usage() string       { return "keygen [--local]" }

func (keygenCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	var km crypto.KeyMaterial
	switch {
	case len(args) == 1 && args[0] == "--local":
		var err error
		if km, err = crypto.GenerateKey(); err != nil {
			return err
		}
	case len(args) == 0:
		resp, body, err := api.DoJSON(ctx, http.MethodGet, api.Endpoint(cfg.ServerURL, "/generate-encryption-key"), nil, "")
		if err != nil {
			return err
		}
		if resp.StatusCode != http.StatusOK {
			return api.ServerError(resp.StatusCode, body)
		}
		var kr struct {
			EncryptionKey crypto.KeyMaterial `json:"encryptionKey"`
		}
		if err := json.Unmarshal(body, &kr); err != nil {
			return fmt.Errorf("decode: %w", err)
		}
		km = kr.EncryptionKey
	default:
		return ErrUsage
	}

	b, err := json.MarshalIndent(km, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(Out, string(b))
	return nil
}

func init() { RegisterCmd(keygenCmd{}) }
