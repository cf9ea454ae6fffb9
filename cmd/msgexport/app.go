package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Zuo-Peng/msgexport/internal/archive"
	"github.com/Zuo-Peng/msgexport/internal/config"
	"github.com/Zuo-Peng/msgexport/internal/export"
	"github.com/Zuo-Peng/msgexport/internal/identity"
	"github.com/Zuo-Peng/msgexport/internal/logging"
)

// app carries the global flags and what setup derives from them.
type app struct {
	configPath      string
	logLevel        string
	logFormat       string
	dbPath          string
	attachmentsPath string
	contactsPath    string

	cfg *config.Config
	log zerolog.Logger
}

// setup loads configuration, lets flags win over it, and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	for _, o := range []struct {
		flag string
		dst  *string
	}{
		{a.dbPath, &cfg.DBPath},
		{a.attachmentsPath, &cfg.AttachmentsRoot},
		{a.contactsPath, &cfg.ContactsPath},
	} {
		if o.flag != "" {
			*o.dst = cfg.ExpandHome(o.flag)
		}
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if a.logFormat != "" {
		cfg.LogFormat = a.logFormat
	}

	log, err := logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = log
	return nil
}

func (a *app) exportOptions(filter archive.Filter) (export.Options, error) {
	contacts, err := identity.LoadContacts(a.cfg.ContactsPath)
	if err != nil {
		return export.Options{}, err
	}
	if contacts.Len() > 0 {
		a.log.Debug().Int("handles", contacts.Len()).Msg("contacts loaded")
	}
	return export.Options{
		Filter:          filter,
		AttachmentsRoot: a.cfg.AttachmentsRoot,
		Home:            a.cfg.Home,
		Contacts:        contacts,
		LabelMaxLen:     a.cfg.LabelMaxLen,
		Now:             time.Now(),
		Logger:          a.log,
	}, nil
}

// library opens the archive and wraps it for read-only commands. The caller
// closes the returned DB.
func (a *app) library(ctx context.Context, filter archive.Filter) (*archive.DB, *export.Library, error) {
	db, err := archive.Open(ctx, a.cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	opts, err := a.exportOptions(filter)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return db, export.NewLibrary(db, opts), nil
}

// terminalWidth reports the width of w when it is a terminal.
func terminalWidth(w io.Writer) (int, bool) {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0, false
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return 120, true
	}
	return width, true
}
