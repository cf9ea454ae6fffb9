// Package export runs the readable export: one transcript directory per
// conversation, with its attachment files copied alongside.
package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/Zuo-Peng/msgexport/internal/archive"
	"github.com/Zuo-Peng/msgexport/internal/backup"
	"github.com/Zuo-Peng/msgexport/internal/identity"
	"github.com/Zuo-Peng/msgexport/internal/render"
	"github.com/Zuo-Peng/msgexport/internal/summary"
)

// ErrNoConversations is returned when a contact filter matches nothing.
var ErrNoConversations = errors.New("no conversations matched")

const (
	// ReadableDir holds one directory per conversation.
	ReadableDir    = "readable"
	transcriptName = "chat.txt"
	progressEvery  = 10
)

type Options struct {
	Dest            string
	Filter          archive.Filter
	AttachmentsRoot string
	Home            string
	Contacts        *identity.Contacts
	LabelMaxLen     int
	Location        *time.Location
	Now             time.Time
	Logger          zerolog.Logger
}

// Run exports every conversation matching opts.Filter that has at least one
// message. Conversations are processed in archive order, one at a time.
func Run(ctx context.Context, db *archive.DB, opts Options) (summary.Summary, error) {
	log := opts.Logger
	builder := summary.NewBuilder()
	if err := ctx.Err(); err != nil {
		return builder.Finalize(), err
	}

	lib := NewLibrary(db, opts)
	convs, err := lib.Conversations(ctx)
	if err != nil {
		return builder.Finalize(), err
	}
	if len(convs) == 0 && opts.Filter.Handle != "" {
		return builder.Finalize(), ErrNoConversations
	}
	log.Info().Int("conversations", len(convs)).Msg("found conversations")

	readable := filepath.Join(opts.Dest, ReadableDir)
	if err := os.MkdirAll(readable, 0o755); err != nil {
		return builder.Finalize(), fmt.Errorf("create %s: %w", readable, err)
	}

	exported := 0
	for _, conv := range convs {
		if err := ctx.Err(); err != nil {
			return builder.Finalize(), err
		}
		if conv.MessageCount == 0 {
			continue
		}

		res, copied, err := exportConversation(ctx, lib, conv, readable, log)
		if err != nil {
			return builder.Finalize(), err
		}
		builder.Record(conv.Label, res.Messages, copied)

		exported++
		if exported%progressEvery == 0 {
			log.Info().Int("done", exported).Int("total", len(convs)).Msg("progress")
		}
	}

	s := builder.Finalize()
	log.Info().Int("conversations", s.Conversations).Int("messages", s.Messages).
		Int("attachments", s.Attachments).Msg("readable export complete")
	return s, nil
}

func exportConversation(ctx context.Context, lib *Library, conv archive.Conversation, readable string,
	log zerolog.Logger) (render.Result, int, error) {
	dir := filepath.Join(readable, conv.Label)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return render.Result{}, 0, fmt.Errorf("create %s: %w", dir, err)
	}

	f, err := os.Create(filepath.Join(dir, transcriptName))
	if err != nil {
		return render.Result{}, 0, fmt.Errorf("create transcript: %w", err)
	}
	res, err := lib.Transcript(ctx, conv, f)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close transcript: %w", cerr)
	}
	if err != nil {
		return res, 0, err
	}
	if res.Unavailable > 0 {
		log.Debug().Str("conversation", conv.Label).Int("missing", res.Unavailable).Msg("attachments not available")
	}

	copied := 0
	for _, item := range res.Copies {
		dst := filepath.Join(dir, filepath.FromSlash(item.Dest))
		if _, err := backup.CopyFile(item.Source, dst); err != nil {
			log.Warn().Err(err).Str("conversation", conv.Label).Str("file", item.Attachment.Name()).
				Msg("could not copy attachment")
			continue
		}
		copied++
	}
	return res, copied, nil
}
