package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/msgexport/internal/archive"
	"github.com/Zuo-Peng/msgexport/internal/backup"
	"github.com/Zuo-Peng/msgexport/internal/export"
)

func exportCmd(a *app) *cobra.Command {
	var contact string
	var readableOnly, backupOnly bool

	cmd := &cobra.Command{
		Use:   "export <destination>",
		Short: "Write a raw backup and readable transcripts to a destination folder",
		Long: `Copies the archive database and attachment store into <destination>/backup and
writes one plain-text transcript per conversation to <destination>/readable/<label>/chat.txt,
with that conversation's attachments in an attachments/ folder beside it. A manifest,
export_info.json, is written last.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			dest, err := filepath.Abs(a.cfg.ExpandHome(args[0]))
			if err != nil {
				return err
			}

			db, err := archive.Open(ctx, a.cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			opts, err := a.exportOptions(archive.Filter{Handle: contact})
			if err != nil {
				return err
			}
			opts.Dest = dest

			// nothing is written until the archive has opened
			if err := os.MkdirAll(dest, 0o755); err != nil {
				return fmt.Errorf("create destination: %w", err)
			}

			fmt.Fprintf(out, "Destination: %s\n", dest)
			manifest := export.NewManifest("msgexport "+version, a.cfg.DBPath, opts.Now)
			manifest.ContactFilter = contact

			if !readableOnly {
				res, err := backup.Run(ctx, backup.Options{
					DBPath:          a.cfg.DBPath,
					AttachmentsRoot: a.cfg.AttachmentsRoot,
					Dest:            dest,
					Logger:          a.log,
				})
				if err != nil {
					return err
				}
				manifest.Backup = &res
				fmt.Fprintf(out, "Backup: database %s, %d attachment files (%s)\n",
					humanize.Bytes(uint64(res.DatabaseBytes)), res.AttachmentFiles,
					humanize.Bytes(uint64(res.AttachmentBytes)))
			}

			if !backupOnly {
				s, err := export.Run(ctx, db, opts)
				switch {
				case errors.Is(err, export.ErrNoConversations):
					// informational; the manifest still records the run
					fmt.Fprintln(out, "No conversations matched.")
				case err != nil:
					return err
				default:
					fmt.Fprintf(out, "Exported %d conversations, %d messages, %d attachments\n",
						s.Conversations, s.Messages, s.Attachments)
				}
				manifest.Summary = &s
			}

			path, err := export.WriteManifest(dest, manifest)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Export summary written to %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&contact, "contact", "", "Only export conversations with this phone number or email")
	cmd.Flags().BoolVar(&readableOnly, "readable-only", false, "Skip the raw backup")
	cmd.Flags().BoolVar(&backupOnly, "backup-only", false, "Skip the readable transcripts")
	cmd.MarkFlagsMutuallyExclusive("readable-only", "backup-only")

	return cmd
}
