package sqlite

import (
	"DBWalrus/internal/cli/model"
	"DBWalrus/internal/cli/repo"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// HistoryRepositorySQLite — история загрузок в локальной БД SQLite.
type HistoryRepositorySQLite struct {
	db  *sql.DB
	now func() time.Time
}

var _ repo.HistoryRepository = (*HistoryRepositorySQLite)(nil)

// Open открывает (и создаёт при необходимости) файл БД по указанному пути.
func Open(path string) (*HistoryRepositorySQLite, error) {
	if path == "" {
		return nil, errors.New("empty client db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	return &HistoryRepositorySQLite{db: db, now: time.Now}, nil
}

// Close закрывает соединение с БД.
func (r *HistoryRepositorySQLite) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// Migrate гарантирует наличие необходимых таблиц/индексов.
func (r *HistoryRepositorySQLite) Migrate() error {
	_, err := r.db.Exec(initialDDL())
	return err
}

// Add сохраняет запись о загрузке.
func (r *HistoryRepositorySQLite) Add(u model.Upload) (string, error) {
	if u.BlobID == "" {
		return "", errors.New("blob id is required")
	}
	id := uuid.NewString()
	created := u.CreatedAt
	if created == 0 {
		created = r.now().Unix()
	}
	_, err := r.db.Exec(`INSERT INTO uploads(
        id, blob_id, object_id, size, encrypted, key_json, source, created_at
    ) VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
		id, u.BlobID, u.ObjectID, u.Size, boolToInt(u.Encrypted), u.KeyJSON, u.Source, created,
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

// List возвращает все записи, отсортированные по created_at DESC.
func (r *HistoryRepositorySQLite) List() ([]model.Upload, error) {
	rows, err := r.db.Query(`SELECT id, blob_id, object_id, size, encrypted, key_json, source, created_at
        FROM uploads ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []model.Upload
	for rows.Next() {
		u, err := scanUpload(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *u)
	}
	return res, rows.Err()
}

// GetByBlobID возвращает последнюю загрузку с указанным blob id.
func (r *HistoryRepositorySQLite) GetByBlobID(blobID string) (*model.Upload, error) {
	row := r.db.QueryRow(`SELECT id, blob_id, object_id, size, encrypted, key_json, source, created_at
        FROM uploads WHERE blob_id = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`, blobID)
	u, err := scanUpload(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repo.ErrNotFound
	}
	return u, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUpload(s scanner) (*model.Upload, error) {
	var u model.Upload
	var enc int
	if err := s.Scan(&u.ID, &u.BlobID, &u.ObjectID, &u.Size, &enc, &u.KeyJSON, &u.Source, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Encrypted = enc != 0
	return &u, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
