// Package archivetest builds small chat.db files for tests.
package archivetest

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE chat (
    ROWID           INTEGER PRIMARY KEY AUTOINCREMENT,
    guid            TEXT,
    style           INTEGER,
    chat_identifier TEXT,
    service_name    TEXT,
    display_name    TEXT
);
CREATE TABLE handle (
    ROWID   INTEGER PRIMARY KEY AUTOINCREMENT,
    id      TEXT NOT NULL,
    service TEXT
);
CREATE TABLE chat_handle_join (
    chat_id   INTEGER REFERENCES chat (ROWID),
    handle_id INTEGER REFERENCES handle (ROWID),
    UNIQUE (chat_id, handle_id)
);
CREATE TABLE message (
    ROWID                   INTEGER PRIMARY KEY AUTOINCREMENT,
    guid                    TEXT,
    text                    TEXT,
    handle_id               INTEGER DEFAULT 0,
    service                 TEXT,
    date                    INTEGER,
    date_read               INTEGER,
    date_delivered          INTEGER,
    is_from_me              INTEGER DEFAULT 0,
    associated_message_type INTEGER DEFAULT 0
);
CREATE TABLE chat_message_join (
    chat_id    INTEGER REFERENCES chat (ROWID),
    message_id INTEGER REFERENCES message (ROWID),
    message_date INTEGER DEFAULT 0,
    PRIMARY KEY (chat_id, message_id)
);
CREATE TABLE attachment (
    ROWID         INTEGER PRIMARY KEY AUTOINCREMENT,
    guid          TEXT,
    filename      TEXT,
    mime_type     TEXT,
    transfer_name TEXT,
    total_bytes   INTEGER DEFAULT 0
);
CREATE TABLE message_attachment_join (
    message_id    INTEGER REFERENCES message (ROWID),
    attachment_id INTEGER REFERENCES attachment (ROWID),
    UNIQUE (message_id, attachment_id)
);
`

// Archive is a writable fixture database. Rows are inserted in call order,
// so tests control physical row order independently of message dates.
type Archive struct {
	Path string
	t    testing.TB
	db   *sql.DB
}

// New creates an empty archive in a temporary directory.
func New(t testing.TB) *Archive {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chat.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		t.Fatalf("create fixture schema: %v", err)
	}
	a := &Archive{Path: path, t: t, db: db}
	t.Cleanup(func() { a.db.Close() })
	return a
}

// Exec runs arbitrary SQL against the fixture.
func (a *Archive) Exec(query string, args ...interface{}) {
	a.t.Helper()
	if _, err := a.db.Exec(query, args...); err != nil {
		a.t.Fatalf("fixture exec %q: %v", query, err)
	}
}

func (a *Archive) Handle(id int64, handle string) {
	a.t.Helper()
	a.Exec("INSERT INTO handle (ROWID, id, service) VALUES (?, ?, 'iMessage')", id, handle)
}

// Chat inserts a conversation linked to the given handle ids.
func (a *Archive) Chat(id int64, identifier, displayName string, group bool, handleIDs ...int64) {
	a.t.Helper()
	style := 45
	if group {
		style = 43
	}
	a.Exec("INSERT INTO chat (ROWID, chat_identifier, display_name, style) VALUES (?, ?, ?, ?)",
		id, identifier, nullIfEmpty(displayName), style)
	for _, h := range handleIDs {
		a.Exec("INSERT INTO chat_handle_join (chat_id, handle_id) VALUES (?, ?)", id, h)
	}
}

// Msg describes one message row.
type Msg struct {
	ID          int64
	ChatID      int64
	HandleID    int64 // 0 for none
	FromMe      bool
	Date        int64
	Text        string // "" is stored as NULL
	Reaction    int    // associated_message_type
	Attachments []int64
}

func (a *Archive) Message(m Msg) {
	a.t.Helper()
	fromMe := 0
	if m.FromMe {
		fromMe = 1
	}
	a.Exec(`INSERT INTO message (ROWID, text, handle_id, service, date, is_from_me, associated_message_type)
		VALUES (?, ?, ?, 'iMessage', ?, ?, ?)`,
		m.ID, nullIfEmpty(m.Text), m.HandleID, m.Date, fromMe, m.Reaction)
	a.Exec("INSERT INTO chat_message_join (chat_id, message_id, message_date) VALUES (?, ?, ?)",
		m.ChatID, m.ID, m.Date)
	for _, att := range m.Attachments {
		a.Exec("INSERT INTO message_attachment_join (message_id, attachment_id) VALUES (?, ?)", m.ID, att)
	}
}

// Attachment inserts an attachment row. Link it through Msg.Attachments.
func (a *Archive) Attachment(id int64, filename, transferName, mimeType string) {
	a.t.Helper()
	a.Exec("INSERT INTO attachment (ROWID, filename, transfer_name, mime_type) VALUES (?, ?, ?, ?)",
		id, nullIfEmpty(filename), nullIfEmpty(transferName), nullIfEmpty(mimeType))
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
