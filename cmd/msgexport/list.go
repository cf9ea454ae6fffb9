package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/msgexport/internal/archive"
)

const (
	colorReset = "\033[0m"
	colorDim   = "\033[2m"
	colorBold  = "\033[1m"
)

type listRow struct {
	id, kind, messages, label, participants string
}

func listCmd(a *app) *cobra.Command {
	var contact string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List conversations with their export labels",
		Long: `Lists every conversation with its id, kind, message count, export label and
participants. Output is an aligned table on a terminal and TSV otherwise:
  id, kind, messages, label, participants`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, lib, err := a.library(ctx, archive.Filter{Handle: contact})
			if err != nil {
				return err
			}
			defer db.Close()

			convs, err := lib.Conversations(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(convs) == 0 {
				if contact != "" {
					fmt.Fprintln(out, "No conversations matched.")
				}
				return nil
			}

			rows := make([]listRow, 0, len(convs))
			for _, c := range convs {
				kind := "direct"
				if c.Group {
					kind = "group"
				}
				label := c.Label
				if label == "" {
					label = "-"
				}
				rows = append(rows, listRow{
					id:           strconv.FormatInt(c.ID, 10),
					kind:         kind,
					messages:     strconv.Itoa(c.MessageCount),
					label:        label,
					participants: strings.Join(lib.Participants(c), ", "),
				})
			}

			if width, ok := terminalWidth(out); ok {
				writeTable(out, rows, width)
				return nil
			}
			writeTSV(out, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&contact, "contact", "", "Only list conversations with this phone number or email")

	return cmd
}

func writeTSV(w io.Writer, rows []listRow) {
	clean := strings.NewReplacer("\t", " ", "\n", " ")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.id, r.kind, r.messages,
			clean.Replace(r.label), clean.Replace(r.participants))
	}
}

// writeTable aligns columns by display width and cuts the participants
// column to fit the terminal.
func writeTable(w io.Writer, rows []listRow, width int) {
	header := listRow{"ID", "KIND", "MSGS", "LABEL", "PARTICIPANTS"}
	var widths [4]int
	for _, r := range append([]listRow{header}, rows...) {
		for i, s := range []string{r.id, r.kind, r.messages, r.label} {
			widths[i] = max(widths[i], runewidth.StringWidth(s))
		}
	}
	widths[3] = min(widths[3], 48)

	line := func(r listRow) string {
		var b strings.Builder
		for i, s := range []string{r.id, r.kind, r.messages, r.label} {
			s = runewidth.Truncate(s, widths[i], "…")
			if i == 2 {
				b.WriteString(runewidth.FillLeft(s, widths[i]))
			} else {
				b.WriteString(runewidth.FillRight(s, widths[i]))
			}
			b.WriteString("  ")
		}
		room := width - runewidth.StringWidth(b.String())
		if room > 0 {
			b.WriteString(runewidth.Truncate(r.participants, room, "…"))
		}
		return b.String()
	}

	fmt.Fprintln(w, colorBold+line(header)+colorReset)
	for _, r := range rows {
		l := line(r)
		if r.label == "-" {
			l = colorDim + l + colorReset
		}
		fmt.Fprintln(w, l)
	}
}
