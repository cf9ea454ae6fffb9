package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/msgexport/internal/archive"
	"github.com/Zuo-Peng/msgexport/internal/export"
	"github.com/Zuo-Peng/msgexport/internal/render"
)

func previewCmd(a *app) *cobra.Command {
	var width int

	cmd := &cobra.Command{
		Use:   "preview <chat-id>",
		Short: "Print one conversation's transcript without exporting",
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

			out := cmd.OutOrStdout()
			if width <= 0 {
				_, err := lib.Transcript(ctx, *conv, out)
				return err
			}
			text, err := lib.TranscriptString(ctx, *conv)
			if err != nil {
				return err
			}
			fmt.Fprint(out, render.Wrap(text, width))
			return nil
		},
	}

	cmd.Flags().IntVar(&width, "width", 0, "Wrap lines to this many columns (0 = no wrapping)")

	return cmd
}

func lookupConversation(ctx context.Context, lib *export.Library, arg string) (*archive.Conversation, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat id %q", arg)
	}
	conv, err := lib.Conversation(ctx, id)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, fmt.Errorf("conversation not found: %d", id)
	}
	return conv, nil
}
