package sqlite

import (
	"DBWalrus/internal/cli/model"
	"DBWalrus/internal/cli/repo"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func openTemp(t *testing.T) (*HistoryRepositorySQLite, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "client.sqlite")
	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	if err := r.Migrate(); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return r, path
}

func TestOpen_And_Migrate(t *testing.T) {
	r, path := openTemp(t)
	// повторная миграция безопасна
	if err := r.Migrate(); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("db file not created: %v", err)
	}
}

func TestOpen_EmptyPath(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestAdd_ThenListAndGet(t *testing.T) {
	r, _ := openTemp(t)
	ts := time.Unix(1_700_000_000, 0)
	r.now = func() time.Time { return ts }

	list, err := r.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty list, got %d", len(list))
	}

	if _, err := r.Add(model.Upload{BlobID: "B1", ObjectID: "0x1", Size: "0.000016 MB", Source: "a.sql"}); err != nil {
		t.Fatalf("add B1: %v", err)
	}
	ts = ts.Add(time.Minute)
	id, err := r.Add(model.Upload{BlobID: "B2", ObjectID: "0x2", Encrypted: true, KeyJSON: `{"key":"k"}`, Source: "-"})
	if err != nil {
		t.Fatalf("add B2: %v", err)
	}
	if id == "" {
		t.Fatalf("empty id")
	}

	list, err = r.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].BlobID != "B2" || list[1].BlobID != "B1" {
		t.Fatalf("unexpected order: %+v", list)
	}
	if !list[0].Encrypted || list[1].Encrypted {
		t.Fatalf("encrypted flag not preserved: %+v", list)
	}

	got, err := r.GetByBlobID("B2")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.KeyJSON != `{"key":"k"}` || got.ObjectID != "0x2" || got.CreatedAt != ts.Unix() {
		t.Fatalf("unexpected upload: %+v", got)
	}
}

func TestGetByBlobID_LatestWins(t *testing.T) {
	r, _ := openTemp(t)
	if _, err := r.Add(model.Upload{BlobID: "B", ObjectID: "old", CreatedAt: 10}); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Add(model.Upload{BlobID: "B", ObjectID: "new", CreatedAt: 20}); err != nil {
		t.Fatal(err)
	}
	got, err := r.GetByBlobID("B")
	if err != nil {
		t.Fatal(err)
	}
	if got.ObjectID != "new" {
		t.Fatalf("expected newest object, got %s", got.ObjectID)
	}
}

func TestGetByBlobID_NotFound(t *testing.T) {
	r, _ := openTemp(t)
	if _, err := r.GetByBlobID("nope"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAdd_RequiresBlobID(t *testing.T) {
	r, _ := openTemp(t)
	if _, err := r.Add(model.Upload{}); err == nil {
		t.Fatalf("expected error")
	}
}
