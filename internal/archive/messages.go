package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrOutOfOrder is returned by a MessageStream whose rows violate the
// (date, id) ordering.
var ErrOutOfOrder = errors.New("messages out of order")

// MessageStream is a single-pass cursor over one conversation's messages in
// ascending (date, id) order. Only the current message is held in memory.
//
//	s, err := db.Messages(ctx, id)
//	...
//	defer s.Close()
//	for s.Next() {
//		m := s.Message()
//	}
//	if err := s.Err(); err != nil { ... }
type MessageStream struct {
	rows   *sql.Rows
	convID int64
	cur    Message
	n      int
	err    error
}

// Messages opens a stream over conversationID. Each call issues a fresh query.
func (d *DB) Messages(ctx context.Context, conversationID int64) (*MessageStream, error) {
	rows, err := d.conn.QueryContext(ctx, `
		SELECT
			m.ROWID,
			COALESCE(m.text, ''),
			COALESCE(m.date, 0),
			COALESCE(m.is_from_me, 0),
			COALESCE(m.service, ''),
			COALESCE(m.associated_message_type, 0),
			h.ROWID,
			h.id,
			(SELECT COUNT(*) FROM message_attachment_join maj WHERE maj.message_id = m.ROWID)
		FROM chat_message_join cmj
		JOIN message m ON m.ROWID = cmj.message_id
		LEFT JOIN handle h ON h.ROWID = m.handle_id
		WHERE cmj.chat_id = ?
		ORDER BY m.date ASC, m.ROWID ASC`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("query messages for conversation %d: %w", conversationID, err)
	}
	return &MessageStream{rows: rows, convID: conversationID}, nil
}

// Next advances to the next message. It returns false at the end of the
// stream or on error; check Err afterwards.
func (s *MessageStream) Next() bool {
	if s.err != nil || s.rows == nil {
		return false
	}
	if !s.rows.Next() {
		s.err = s.rows.Err()
		s.Close()
		return false
	}

	var (
		m        Message
		fromMe   int
		handleID sql.NullInt64
		handle   sql.NullString
	)
	if err := s.rows.Scan(
		&m.ID, &m.Text, &m.Date, &fromMe, &m.Service, &m.AssociatedType,
		&handleID, &handle, &m.Attachments,
	); err != nil {
		s.err = fmt.Errorf("scan message: %w", err)
		s.Close()
		return false
	}
	m.ConversationID = s.convID
	m.Ordinal = s.n

	switch {
	case fromMe != 0:
		m.Sender = nil
	case handleID.Valid:
		m.Sender = &Participant{ID: handleID.Int64, Handle: handle.String}
	default:
		// received, but the archive no longer knows from whom
		m.Sender = &Participant{}
	}

	if s.n > 0 && Less(m, s.cur) {
		s.err = fmt.Errorf("%w: message %d follows message %d in conversation %d",
			ErrOutOfOrder, m.ID, s.cur.ID, s.convID)
		s.Close()
		return false
	}

	s.cur = m
	s.n++
	return true
}

// Message returns the current message.
func (s *MessageStream) Message() Message {
	return s.cur
}

// Count is the number of messages produced so far.
func (s *MessageStream) Count() int {
	return s.n
}

func (s *MessageStream) Err() error {
	return s.err
}

// Close releases the underlying rows. It is idempotent.
func (s *MessageStream) Close() error {
	if s.rows == nil {
		return nil
	}
	err := s.rows.Close()
	s.rows = nil
	return err
}

// Less reports whether a sorts before b: by date, then by id.
func Less(a, b Message) bool {
	if a.Date != b.Date {
		return a.Date < b.Date
	}
	return a.ID < b.ID
}
