package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/msgexport/internal/archive"
	"github.com/Zuo-Peng/msgexport/internal/open"
)

func openCmd(a *app) *cobra.Command {
	var end bool

	cmd := &cobra.Command{
		Use:   "open <chat-id>",
		Short: "Open a conversation's transcript in $EDITOR",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, lib, err := a.library(ctx, archive.Filter{})
			if err != nil {
				return err
			}
			defer db.Close()

			conv, err := lookupConversation(ctx, lib, args[0])
			if err != nil {
				return err
			}
			text, err := lib.TranscriptString(ctx, *conv)
			if err != nil {
				return err
			}

			f, err := os.CreateTemp("", "msgexport-*.txt")
			if err != nil {
				return err
			}
			defer os.Remove(f.Name())
			if _, err := f.WriteString(text); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}

			line := 1
			if end {
				line = strings.Count(text, "\n")
			}
			return open.File(open.Editor(), f.Name(), line)
		},
	}

	cmd.Flags().BoolVar(&end, "end", false, "Start at the most recent message")

	return cmd
}
