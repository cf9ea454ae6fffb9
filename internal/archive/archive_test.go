package archive_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Zuo-Peng/msgexport/internal/archive"
	"github.com/Zuo-Peng/msgexport/internal/archive/archivetest"
)

func openFixture(t *testing.T, a *archivetest.Archive) *archive.DB {
	t.Helper()
	db, err := archive.Open(context.Background(), a.Path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleArchive(t *testing.T) *archivetest.Archive {
	t.Helper()
	a := archivetest.New(t)
	a.Handle(1, "+15550102000")
	a.Handle(2, "bob@example.com")
	a.Handle(3, "+15550103000")

	// inserted out of id order on purpose
	a.Chat(3, "chat-group", "Weekend", true, 3, 1)
	a.Chat(1, "+15550102000", "", false, 1)
	a.Chat(2, "bob@example.com", "", false, 2)
	return a
}

func TestOpenMissingFile(t *testing.T) {
	_, err := archive.Open(context.Background(), filepath.Join(t.TempDir(), "nope.db"))
	if !errors.Is(err, archive.ErrArchiveUnavailable) {
		t.Fatalf("Open() error = %v, want ErrArchiveUnavailable", err)
	}
}

func TestOpenWrongSchema(t *testing.T) {
	a := archivetest.New(t)
	a.Exec("DROP TABLE message_attachment_join")

	_, err := archive.Open(context.Background(), a.Path)
	if !errors.Is(err, archive.ErrArchiveUnavailable) {
		t.Fatalf("Open() error = %v, want ErrArchiveUnavailable", err)
	}
}

func TestOpenIsReadOnly(t *testing.T) {
	a := sampleArchive(t)
	before, err := os.ReadFile(a.Path)
	if err != nil {
		t.Fatal(err)
	}

	db := openFixture(t, a)
	if _, err := db.Conn().ExecContext(context.Background(), "DELETE FROM handle"); err == nil {
		t.Fatal("write through archive connection succeeded, want error")
	}

	after, err := os.ReadFile(a.Path)
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Fatal("archive file changed")
	}
}

func TestListConversations(t *testing.T) {
	a := sampleArchive(t)
	a.Message(archivetest.Msg{ID: 1, ChatID: 3, HandleID: 3, Date: 10, Text: "hi"})
	a.Message(archivetest.Msg{ID: 2, ChatID: 3, FromMe: true, Date: 20, Text: "yo"})
	db := openFixture(t, a)

	convs, err := db.ListConversations(context.Background(), archive.Filter{})
	if err != nil {
		t.Fatalf("ListConversations() error = %v", err)
	}
	if len(convs) != 3 {
		t.Fatalf("got %d conversations, want 3", len(convs))
	}
	for i, want := range []int64{1, 2, 3} {
		if convs[i].ID != want {
			t.Errorf("convs[%d].ID = %d, want %d", i, convs[i].ID, want)
		}
	}

	group := convs[2]
	if !group.Group || group.DisplayName != "Weekend" || group.MessageCount != 2 {
		t.Errorf("group conversation = %+v", group)
	}
	if got := group.Handles(); len(got) != 2 || got[0] != "+15550102000" || got[1] != "+15550103000" {
		t.Errorf("group handles = %v, want ordered by handle id", got)
	}
	if convs[0].Group {
		t.Error("one-to-one chat reported as group")
	}
}

func TestListConversationsFilter(t *testing.T) {
	db := openFixture(t, sampleArchive(t))
	ctx := context.Background()

	tests := []struct {
		name   string
		handle string
		want   []int64
	}{
		{"formatted phone", "+1 (555) 010-2000", []int64{1, 3}},
		{"email case", "BOB@example.com", []int64{2}},
		{"no match", "nobody@example.com", nil},
		{"substring is not a match", "bob", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			convs, err := db.ListConversations(ctx, archive.Filter{Handle: tt.handle})
			if err != nil {
				t.Fatalf("ListConversations() error = %v", err)
			}
			if len(convs) != len(tt.want) {
				t.Fatalf("got %d conversations, want %d", len(convs), len(tt.want))
			}
			for i, id := range tt.want {
				if convs[i].ID != id {
					t.Errorf("convs[%d].ID = %d, want %d", i, convs[i].ID, id)
				}
			}
		})
	}
}

func TestGetConversation(t *testing.T) {
	db := openFixture(t, sampleArchive(t))
	ctx := context.Background()

	c, err := db.GetConversation(ctx, 3)
	if err != nil {
		t.Fatalf("GetConversation() error = %v", err)
	}
	if c == nil || c.DisplayName != "Weekend" || len(c.Participants) != 2 {
		t.Fatalf("GetConversation(3) = %+v", c)
	}

	missing, err := db.GetConversation(ctx, 99)
	if err != nil || missing != nil {
		t.Fatalf("GetConversation(99) = %+v, %v; want nil, nil", missing, err)
	}
}

func TestMessagesOrdered(t *testing.T) {
	a := sampleArchive(t)
	// physical insertion order differs from chronological order; 40 and 41
	// share a timestamp and must come out by id
	a.Message(archivetest.Msg{ID: 41, ChatID: 1, HandleID: 1, Date: 300, Text: "third"})
	a.Message(archivetest.Msg{ID: 10, ChatID: 1, FromMe: true, Date: 500, Text: "last"})
	a.Message(archivetest.Msg{ID: 55, ChatID: 1, HandleID: 1, Date: 100, Text: "first"})
	a.Message(archivetest.Msg{ID: 40, ChatID: 1, FromMe: true, Date: 300, Text: "second"})
	a.Message(archivetest.Msg{ID: 60, ChatID: 1, HandleID: 0, Date: 400})
	a.Message(archivetest.Msg{ID: 70, ChatID: 2, HandleID: 2, Date: 1, Text: "other chat"})
	db := openFixture(t, a)

	s, err := db.Messages(context.Background(), 1)
	if err != nil {
		t.Fatalf("Messages() error = %v", err)
	}
	defer s.Close()

	var got []archive.Message
	for s.Next() {
		got = append(got, s.Message())
	}
	if err := s.Err(); err != nil {
		t.Fatalf("stream error = %v", err)
	}

	wantIDs := []int64{55, 40, 41, 60, 10}
	if len(got) != len(wantIDs) {
		t.Fatalf("got %d messages, want %d", len(got), len(wantIDs))
	}
	for i, id := range wantIDs {
		if got[i].ID != id {
			t.Errorf("message %d id = %d, want %d", i, got[i].ID, id)
		}
		if got[i].Ordinal != i {
			t.Errorf("message %d ordinal = %d", i, got[i].Ordinal)
		}
		if i > 0 && archive.Less(got[i], got[i-1]) {
			t.Errorf("message %d sorts before its predecessor", i)
		}
	}

	if got[0].Sender == nil || got[0].Sender.Handle != "+15550102000" {
		t.Errorf("first sender = %+v", got[0].Sender)
	}
	if got[1].Sender != nil {
		t.Errorf("owner message sender = %+v, want nil", got[1].Sender)
	}
	if got[3].Sender == nil || got[3].Sender.Handle != "" || got[3].Text != "" {
		t.Errorf("empty message = %+v, want unknown sender and empty text", got[3])
	}
	if s.Count() != 5 {
		t.Errorf("Count() = %d, want 5", s.Count())
	}
	if s.Next() {
		t.Error("exhausted stream advanced again")
	}
}

func TestAttachments(t *testing.T) {
	a := sampleArchive(t)
	a.Attachment(8, "~/Library/Messages/Attachments/b.png", "b.png", "image/png")
	a.Attachment(7, "~/Library/Messages/Attachments/a.jpg", "a.jpg", "")
	a.Message(archivetest.Msg{ID: 1, ChatID: 1, HandleID: 1, Date: 1, Attachments: []int64{8, 7}})
	db := openFixture(t, a)
	ctx := context.Background()

	s, err := db.Messages(ctx, 1)
	if err != nil {
		t.Fatalf("Messages() error = %v", err)
	}
	defer s.Close()
	if !s.Next() {
		t.Fatalf("no message: %v", s.Err())
	}
	m := s.Message()
	if m.Attachments != 2 {
		t.Fatalf("Attachments count = %d, want 2", m.Attachments)
	}

	// queried while the stream is still open on the same connection
	atts, err := db.Attachments(ctx, m.ID)
	if err != nil {
		t.Fatalf("Attachments() error = %v", err)
	}
	if len(atts) != 2 || atts[0].ID != 7 || atts[1].ID != 8 {
		t.Fatalf("attachments = %+v, want ids 7, 8", atts)
	}
	if atts[1].MIMEType != "image/png" || atts[0].TransferName != "a.jpg" {
		t.Errorf("attachment fields = %+v", atts)
	}
}
