package archive

import (
	"context"
	"fmt"
)

// Attachments returns the attachment rows linked to messageID in archive
// order. Paths are left exactly as stored.
func (d *DB) Attachments(ctx context.Context, messageID int64) ([]Attachment, error) {
	rows, err := d.conn.QueryContext(ctx, `
		SELECT
			a.ROWID,
			COALESCE(a.filename, ''),
			COALESCE(a.mime_type, ''),
			COALESCE(a.transfer_name, ''),
			COALESCE(a.total_bytes, 0)
		FROM message_attachment_join maj
		JOIN attachment a ON a.ROWID = maj.attachment_id
		WHERE maj.message_id = ?
		ORDER BY a.ROWID`,
		messageID,
	)
	if err != nil {
		return nil, fmt.Errorf("query attachments for message %d: %w", messageID, err)
	}
	defer rows.Close()

	var out []Attachment
	for rows.Next() {
		a := Attachment{MessageID: messageID}
		if err := rows.Scan(&a.ID, &a.Filename, &a.MIMEType, &a.TransferName, &a.TotalBytes); err != nil {
			return nil, fmt.Errorf("scan attachment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
