package bootstrap

import (
	"fmt"

	"DBWalrus/internal/cli/repo"
	reposqlite "DBWalrus/internal/cli/repo/sqlite"
	"DBWalrus/internal/config"
)

// OpenHistory открывает локальную историю загрузок, выполняет миграции
// и возвращает (repo, cleanup, error).
// cleanup необходимо вызвать после окончания работы с репозиторием, чтобы закрыть соединение с БД.
func OpenHistory(cfg *config.Config) (repo.HistoryRepository, func() error, error) {
	r, err := reposqlite.Open(cfg.ClientDBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open client db: %w", err)
	}
	if err := r.Migrate(); err != nil {
		_ = r.Close()
		return nil, nil, fmt.Errorf("migrate client db: %w", err)
	}
	cleanup := func() error { return r.Close() }
	return r, cleanup, nil
}
