package commands

import (
	"DBWalrus/internal/cli/bootstrap"
	"DBWalrus/internal/config"
	"context"
	"fmt"
	"time"
)

type historyCmd struct{}

func (historyCmd) Name() string        { return "history" }
func (historyCmd) Description() string { return "List uploads made from this machine" }
func (historyCmd) Usage() string       { return "history" }

func (historyCmd) Run(_ context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	history, done, err := bootstrap.OpenHistory(cfg)
	if err != nil {
		return err
	}
	defer done()
	list, err := history.List()
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(Out, "No uploads")
		return nil
	}
	for _, u := range list {
		enc := ""
		if u.Encrypted {
			enc = " (encrypted)"
		}
		fmt.Fprintf(Out, "- %s  blob=%s  object=%s  size=%s  src=%s%s\n",
			time.Unix(u.CreatedAt, 0).UTC().Format(time.RFC3339), u.BlobID, u.ObjectID, u.Size, u.Source, enc)
	}
	fmt.Fprintf(Out, "Total: %d\n", len(list))
	return nil
}

func init() { RegisterCmd(historyCmd{}) }
