// Package backup makes the byte-exact copy of the archive database and its
// attachment store.
package backup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
)

// Dir is the backup directory under the export destination.
const Dir = "backup"

type Options struct {
	DBPath          string
	AttachmentsRoot string
	Dest            string // export destination; files land in Dest/backup
	Logger          zerolog.Logger
}

// Result is recorded in the export manifest.
type Result struct {
	Database           string `json:"database"`
	DatabaseBytes      int64  `json:"database_bytes"`
	DatabaseSHA256     string `json:"database_sha256"`
	Sidecars           int    `json:"sidecars,omitempty"`
	AttachmentFiles    int    `json:"attachment_files"`
	AttachmentBytes    int64  `json:"attachment_bytes"`
	AttachmentsSkipped bool   `json:"attachments_skipped,omitempty"`
}

// Run copies the database, its WAL sidecars and the attachments tree. An
// existing attachments copy is merged into, file by file.
func Run(ctx context.Context, opts Options) (Result, error) {
	var res Result
	log := opts.Logger
	dir := filepath.Join(opts.Dest, Dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return res, fmt.Errorf("create backup dir: %w", err)
	}

	log.Info().Str("source", opts.DBPath).Msg("copying database")
	dbDest := filepath.Join(dir, "chat.db")
	h := sha256.New()
	n, err := CopyFile(opts.DBPath, dbDest, h)
	if err != nil {
		return res, fmt.Errorf("copy database: %w", err)
	}
	res.Database = dbDest
	res.DatabaseBytes = n
	res.DatabaseSHA256 = hex.EncodeToString(h.Sum(nil))

	// uncheckpointed WAL frames live beside the main file
	for _, suffix := range []string{"-wal", "-shm"} {
		src := opts.DBPath + suffix
		if _, err := os.Stat(src); err != nil {
			continue
		}
		if _, err := CopyFile(src, dbDest+suffix); err != nil {
			return res, fmt.Errorf("copy database%s: %w", suffix, err)
		}
		res.Sidecars++
	}
	log.Info().Str("size", humanize.Bytes(uint64(n))).Msg("database copied")

	root := opts.AttachmentsRoot
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		log.Info().Str("path", root).Msg("no attachments folder found, skipping")
		res.AttachmentsSkipped = true
		return res, nil
	}

	attDest := filepath.Join(dir, "Attachments")
	if _, err := os.Stat(attDest); err == nil {
		log.Info().Msg("attachments folder already exists at destination, merging")
	}
	log.Info().Str("source", root).Msg("copying attachments folder (this may take a while)")

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			log.Warn().Err(walkErr).Str("path", path).Msg("skipping unreadable path")
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		n, err := CopyFile(path, filepath.Join(attDest, rel))
		if err != nil {
			return fmt.Errorf("copy %s: %w", rel, err)
		}
		res.AttachmentFiles++
		res.AttachmentBytes += n
		return nil
	})
	if err != nil && !errors.Is(err, fs.SkipAll) {
		return res, fmt.Errorf("copy attachments: %w", err)
	}

	log.Info().
		Int("files", res.AttachmentFiles).
		Str("size", humanize.Bytes(uint64(res.AttachmentBytes))).
		Msg("attachments copied")
	return res, nil
}
