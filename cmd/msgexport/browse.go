package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/msgexport/internal/archive"
	"github.com/Zuo-Peng/msgexport/internal/tui"
)

func browseCmd(a *app) *cobra.Command {
	var contact string

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse conversations and transcripts interactively",
		Long:  `Opens a TUI with the conversation list on the left and the selected transcript on the right. Type to filter, Enter copies the transcript to the clipboard, Esc quits.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, ok := terminalWidth(cmd.OutOrStdout()); !ok {
				return errors.New("browse needs a terminal; use list or preview instead")
			}

			ctx := cmd.Context()
			db, lib, err := a.library(ctx, archive.Filter{Handle: contact})
			if err != nil {
				return err
			}
			defer db.Close()

			return tui.Run(ctx, lib)
		},
	}

	cmd.Flags().StringVar(&contact, "contact", "", "Only show conversations with this phone number or email")

	return cmd
}
