// Package archive reads an iMessage chat.db strictly read-only.
package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// ErrArchiveUnavailable means the database cannot be opened or lacks the
// expected schema. It is fatal for an export run.
var ErrArchiveUnavailable = errors.New("archive unavailable")

var requiredTables = []string{
	"chat",
	"handle",
	"chat_handle_join",
	"message",
	"chat_message_join",
	"attachment",
	"message_attachment_join",
}

// DB is a read-only view of the archive over a single connection. Every
// query, including those issued while a MessageStream is open, runs on that
// connection.
type DB struct {
	db   *sql.DB
	conn *sql.Conn
	path string
}

// Open connects to the archive at dbPath in read-only mode and verifies its
// schema.
func Open(ctx context.Context, dbPath string) (*DB, error) {
	abs, err := filepath.Abs(dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArchiveUnavailable, err)
	}
	if _, err := os.Stat(abs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArchiveUnavailable, err)
	}

	db, err := sql.Open("sqlite", readOnlyDSN(abs))
	if err != nil {
		return nil, fmt.Errorf("%w: open db: %v", ErrArchiveUnavailable, err)
	}
	db.SetMaxOpenConns(1)

	conn, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: connect: %v", ErrArchiveUnavailable, err)
	}

	d := &DB{db: db, conn: conn, path: abs}
	if err := d.checkSchema(ctx); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

func readOnlyDSN(path string) string {
	u := url.URL{
		Scheme:   "file",
		Path:     path,
		RawQuery: "mode=ro&_pragma=query_only(1)&_pragma=busy_timeout(5000)",
	}
	return u.String()
}

func (d *DB) checkSchema(ctx context.Context) error {
	rows, err := d.conn.QueryContext(ctx, "SELECT name FROM sqlite_master WHERE type = 'table'")
	if err != nil {
		return fmt.Errorf("%w: read schema: %v", ErrArchiveUnavailable, err)
	}
	defer rows.Close()

	tables := make(map[string]struct{})
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("%w: read schema: %v", ErrArchiveUnavailable, err)
		}
		tables[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: read schema: %v", ErrArchiveUnavailable, err)
	}

	for _, t := range requiredTables {
		if _, ok := tables[t]; !ok {
			return fmt.Errorf("%w: missing table %q", ErrArchiveUnavailable, t)
		}
	}

	// a permission problem (Full Disk Access on macOS) surfaces only on first read
	var n int
	if err := d.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM message").Scan(&n); err != nil {
		return fmt.Errorf("%w: read messages: %v", ErrArchiveUnavailable, err)
	}
	return nil
}

// Close releases the connection. It is safe to call more than once.
func (d *DB) Close() error {
	var err error
	if d.conn != nil {
		err = d.conn.Close()
		d.conn = nil
	}
	if d.db != nil {
		if cerr := d.db.Close(); err == nil {
			err = cerr
		}
		d.db = nil
	}
	return err
}

// Path is the absolute path of the opened database file.
func (d *DB) Path() string {
	return d.path
}

// Conn exposes the underlying connection for diagnostics.
func (d *DB) Conn() *sql.Conn {
	return d.conn
}

// Counts holds row totals for the doctor command.
type Counts struct {
	Conversations int
	Participants  int
	Messages      int
	Attachments   int
}

func (d *DB) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	for _, q := range []struct {
		table string
		dst   *int
	}{
		{"chat", &c.Conversations},
		{"handle", &c.Participants},
		{"message", &c.Messages},
		{"attachment", &c.Attachments},
	} {
		if err := d.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+q.table).Scan(q.dst); err != nil {
			return c, fmt.Errorf("count %s: %w", q.table, err)
		}
	}
	return c, nil
}
