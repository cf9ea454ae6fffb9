package backup

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRun(t *testing.T) {
	src := t.TempDir()
	dbPath := filepath.Join(src, "chat.db")
	dbBytes := []byte("SQLite format 3\x00 pretend database")
	writeFile(t, dbPath, dbBytes)
	writeFile(t, dbPath+"-wal", []byte("wal"))
	root := filepath.Join(src, "Attachments")
	writeFile(t, filepath.Join(root, "ab", "01", "IMG_1.jpg"), []byte("jpeg bytes"))
	writeFile(t, filepath.Join(root, "cd", "doc.pdf"), []byte("%PDF"))

	old := time.Date(2020, 5, 1, 12, 0, 0, 0, time.UTC)
	if err := os.Chtimes(dbPath, old, old); err != nil {
		t.Fatal(err)
	}

	dest := t.TempDir()
	res, err := Run(context.Background(), Options{
		DBPath:          dbPath,
		AttachmentsRoot: root,
		Dest:            dest,
		Logger:          zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	got, err := os.ReadFile(filepath.Join(dest, Dir, "chat.db"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, dbBytes) {
		t.Fatal("database copy is not byte-identical")
	}
	sum := sha256.Sum256(dbBytes)
	if res.DatabaseSHA256 != hex.EncodeToString(sum[:]) || res.DatabaseBytes != int64(len(dbBytes)) {
		t.Errorf("database result = %+v", res)
	}
	if res.Sidecars != 1 {
		t.Errorf("Sidecars = %d, want 1", res.Sidecars)
	}
	if res.AttachmentFiles != 2 || res.AttachmentBytes != int64(len("jpeg bytes")+len("%PDF")) {
		t.Errorf("attachments result = %+v", res)
	}

	info, err := os.Stat(filepath.Join(dest, Dir, "chat.db"))
	if err != nil {
		t.Fatal(err)
	}
	if !info.ModTime().Equal(old) {
		t.Errorf("mtime = %v, want %v", info.ModTime(), old)
	}
	if _, err := os.Stat(filepath.Join(dest, Dir, "Attachments", "ab", "01", "IMG_1.jpg")); err != nil {
		t.Errorf("attachment not copied: %v", err)
	}
}

func TestRunWithoutAttachments(t *testing.T) {
	src := t.TempDir()
	dbPath := filepath.Join(src, "chat.db")
	writeFile(t, dbPath, []byte("db"))

	res, err := Run(context.Background(), Options{
		DBPath:          dbPath,
		AttachmentsRoot: filepath.Join(src, "missing"),
		Dest:            t.TempDir(),
		Logger:          zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !res.AttachmentsSkipped || res.AttachmentFiles != 0 {
		t.Fatalf("result = %+v", res)
	}
}

func TestRunMissingDatabase(t *testing.T) {
	_, err := Run(context.Background(), Options{
		DBPath: filepath.Join(t.TempDir(), "none.db"),
		Dest:   t.TempDir(),
		Logger: zerolog.Nop(),
	})
	if err == nil {
		t.Fatal("expected error for missing database")
	}
}
