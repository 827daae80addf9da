package commands

import (
	"DBWalrus/internal/cli/auth"
	"DBWalrus/internal/config"
	"context"
	"fmt"
)

type tokenCmd struct{}

func (tokenCmd) Name() string        { return "token" }
func (tokenCmd) Description() string { return "Mint and store a bearer token (needs AUTH_SECRET)" }
func (tokenCmd) Usage() string       { return "token <subject>" }

func (tokenCmd) Run(_ context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	tok, err := auth.Mint(args[0], cfg.AuthSecret, auth.DefaultTTL)
	if err != nil {
		return err
	}
	if err := auth.SaveToken(cfg.TokenFile, tok); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}
	fmt.Fprintf(Out, "Token for %s saved to %s\n", args[0], cfg.TokenFile)
	return nil
}

func init() { RegisterCmd(tokenCmd{}) }
