package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/msgexport/internal/archive"
	"github.com/Zuo-Peng/msgexport/internal/identity"
)

func doctorCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Self-check: verify paths, archive schema and contacts, and show counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			cfg := a.cfg

			fmt.Fprintln(out, "=== Paths ===")
			checkPath(out, "Database", cfg.DBPath, false)
			checkPath(out, "Attachments", cfg.AttachmentsRoot, true)
			if cfg.ContactsPath != "" {
				checkPath(out, "Contacts", cfg.ContactsPath, false)
			}

			fmt.Fprintln(out, "\n=== Archive ===")
			db, err := archive.Open(cmd.Context(), cfg.DBPath)
			if err != nil {
				fmt.Fprintf(out, "  Status: %v\n", err)
				return err
			}
			defer db.Close()
			fmt.Fprintln(out, "  Status: OK (read-only, schema present)")

			counts, err := db.Counts(cmd.Context())
			if err != nil {
				return fmt.Errorf("count rows: %w", err)
			}
			fmt.Fprintf(out, "  Conversations: %d\n", counts.Conversations)
			fmt.Fprintf(out, "  Participants:  %d\n", counts.Participants)
			fmt.Fprintf(out, "  Messages:      %d\n", counts.Messages)
			fmt.Fprintf(out, "  Attachments:   %d\n", counts.Attachments)

			if cfg.ContactsPath != "" {
				fmt.Fprintln(out, "\n=== Contacts ===")
				contacts, err := identity.LoadContacts(cfg.ContactsPath)
				if err != nil {
					fmt.Fprintf(out, "  error: %v\n", err)
				} else {
					fmt.Fprintf(out, "  Handles: %d\n", contacts.Len())
				}
			}

			if info, err := os.Stat(cfg.DBPath); err == nil {
				fmt.Fprintf(out, "\n=== DB Size: %s ===\n", humanize.Bytes(uint64(info.Size())))
			}
			return nil
		},
	}
}

func checkPath(w io.Writer, name, path string, wantDir bool) {
	info, err := os.Stat(path)
	switch {
	case err != nil:
		fmt.Fprintf(w, "  %s: %s (NOT FOUND)\n", name, path)
	case wantDir && !info.IsDir():
		fmt.Fprintf(w, "  %s: %s (NOT A DIRECTORY)\n", name, path)
	case !wantDir && info.IsDir():
		fmt.Fprintf(w, "  %s: %s (IS A DIRECTORY)\n", name, path)
	default:
		fmt.Fprintf(w, "  %s: %s (OK)\n", name, path)
	}
}
