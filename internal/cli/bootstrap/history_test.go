package bootstrap

import (
	"DBWalrus/internal/cli/model"
	"DBWalrus/internal/config"
	"os"
	"path/filepath"
	"testing"
)

func TestOpenHistory_CreatesAndMigrates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "dbwalrus.db")
	r, done, err := OpenHistory(&config.Config{ClientDBPath: path})
	if err != nil {
		t.Fatalf("OpenHistory: %v", err)
	}
	defer done()

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("db not created: %v", err)
	}
	if _, err := r.Add(model.Upload{BlobID: "B"}); err != nil {
		t.Fatalf("add after migrate: %v", err)
	}
}

func TestOpenHistory_BadPath(t *testing.T) {
	dir := t.TempDir()
	// файл на месте каталога
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, _, err := OpenHistory(&config.Config{ClientDBPath: filepath.Join(blocker, "db.sqlite")}); err == nil {
		t.Fatalf("expected error")
	}
}
