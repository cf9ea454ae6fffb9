package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/msgexport/internal/archive"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if errors.Is(err, archive.ErrArchiveUnavailable) {
			fmt.Fprintln(os.Stderr, "Make sure your terminal app has Full Disk Access:")
			fmt.Fprintln(os.Stderr, "  System Settings > Privacy & Security > Full Disk Access")
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:           "msgexport",
		Short:         "Export iMessage conversations to plain-text transcripts and a raw backup",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	f := rootCmd.PersistentFlags()
	f.StringVar(&a.configPath, "config", "", "Config file (default ~/.config/msgexport/config.toml)")
	f.StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	f.StringVar(&a.logFormat, "log-format", "", "Log format (text or json)")
	f.StringVar(&a.dbPath, "db-path", "", "Archive database (default ~/Library/Messages/chat.db)")
	f.StringVar(&a.attachmentsPath, "attachments-path", "", "Attachment store (default ~/Library/Messages/Attachments)")
	f.StringVar(&a.contactsPath, "contacts", "", "vCard file used to name participants")

	rootCmd.AddCommand(exportCmd(a))
	rootCmd.AddCommand(listCmd(a))
	rootCmd.AddCommand(previewCmd(a))
	rootCmd.AddCommand(openCmd(a))
	rootCmd.AddCommand(browseCmd(a))
	rootCmd.AddCommand(doctorCmd(a))

	return rootCmd
}
