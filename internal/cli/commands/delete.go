package commands

import (
	"DBWalrus/internal/cli/api"
	"DBWalrus/internal/cli/auth"
	"DBWalrus/internal/config"
	"context"
	"fmt"
	"net/http"
	"net/url"
)

type deleteCmd struct{}

func (deleteCmd) Name() string        { return "delete" }
func (deleteCmd) Description() string { return "Delete a blob object" }
func (deleteCmd) Usage() string       { return "delete <objectId>" }

func (deleteCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	token, err := auth.LoadToken(cfg.TokenFile)
	if err != nil {
		return fmt.Errorf("load token: %w", err)
	}
	endpoint := api.Endpoint(cfg.ServerURL, "/delete-blob/"+url.PathEscape(args[0]))
	resp, body, err := api.DoJSON(ctx, http.MethodDelete, endpoint, nil, token)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return api.ServerError(resp.StatusCode, body)
	}
	fmt.Fprintf(Out, "Deleted %s\n", args[0])
	return nil
}

func init() { RegisterCmd(deleteCmd{}) }
