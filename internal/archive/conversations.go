package archive

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/Zuo-Peng/msgexport/internal/identity"
)

// Filter restricts ListConversations. The zero value lists everything.
type Filter struct {
	// Handle keeps conversations that include this participant. Matching is
	// case-insensitive and ignores phone number punctuation.
	Handle string
}

// ListConversations returns every conversation exactly once, ordered by id,
// with participants and message counts populated. A filter that matches
// nothing yields an empty slice and no error.
func (d *DB) ListConversations(ctx context.Context, filter Filter) ([]Conversation, error) {
	convs, err := d.loadConversations(ctx, 0)
	if err != nil {
		return nil, err
	}
	if filter.Handle == "" {
		return convs, nil
	}

	want := identity.NormalizeHandle(filter.Handle)
	var out []Conversation
	for _, c := range convs {
		if slices.ContainsFunc(c.Participants, func(p Participant) bool {
			return identity.NormalizeHandle(p.Handle) == want
		}) {
			out = append(out, c)
		}
	}
	return out, nil
}

// GetConversation returns one conversation, or nil if id does not exist.
func (d *DB) GetConversation(ctx context.Context, id int64) (*Conversation, error) {
	convs, err := d.loadConversations(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(convs) == 0 {
		return nil, nil
	}
	return &convs[0], nil
}

// loadConversations reads chats and their participants; id 0 means all.
func (d *DB) loadConversations(ctx context.Context, id int64) ([]Conversation, error) {
	var conditions []string
	var args []interface{}
	if id != 0 {
		conditions = append(conditions, "c.ROWID = ?")
		args = append(args, id)
	}
	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT
			c.ROWID,
			COALESCE(c.chat_identifier, ''),
			COALESCE(c.display_name, ''),
			COALESCE(c.style, 0),
			(SELECT COUNT(*) FROM chat_message_join cmj WHERE cmj.chat_id = c.ROWID)
		FROM chat c
		%s
		ORDER BY c.ROWID
	`, where)

	rows, err := d.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var convs []Conversation
	for rows.Next() {
		var c Conversation
		var style int
		if err := rows.Scan(&c.ID, &c.Identifier, &c.DisplayName, &style, &c.MessageCount); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		c.Group = style == GroupStyle
		convs = append(convs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	rows.Close()

	slices.SortFunc(convs, func(a, b Conversation) int {
		return cmp.Compare(a.ID, b.ID)
	})

	if err := d.attachParticipants(ctx, convs, id); err != nil {
		return nil, err
	}
	return convs, nil
}

func (d *DB) attachParticipants(ctx context.Context, convs []Conversation, id int64) error {
	if len(convs) == 0 {
		return nil
	}
	byID := make(map[int64]*Conversation, len(convs))
	for i := range convs {
		byID[convs[i].ID] = &convs[i]
	}

	query := `
		SELECT chj.chat_id, h.ROWID, COALESCE(h.id, '')
		FROM chat_handle_join chj
		JOIN handle h ON h.ROWID = chj.handle_id`
	var args []interface{}
	if id != 0 {
		query += " WHERE chj.chat_id = ?"
		args = append(args, id)
	}

	rows, err := d.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var chatID int64
		var p Participant
		if err := rows.Scan(&chatID, &p.ID, &p.Handle); err != nil {
			return fmt.Errorf("scan participant: %w", err)
		}
		if c, ok := byID[chatID]; ok {
			c.Participants = append(c.Participants, p)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("list participants: %w", err)
	}

	for i := range convs {
		ps := convs[i].Participants
		slices.SortFunc(ps, func(a, b Participant) int { return cmp.Compare(a.ID, b.ID) })
		convs[i].Participants = slices.CompactFunc(ps, func(a, b Participant) bool { return a.ID == b.ID })
	}
	return nil
}
