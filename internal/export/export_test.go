package export_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Zuo-Peng/msgexport/internal/archive"
	"github.com/Zuo-Peng/msgexport/internal/archive/archivetest"
	"github.com/Zuo-Peng/msgexport/internal/export"
	"github.com/Zuo-Peng/msgexport/internal/identity"
	"github.com/Zuo-Peng/msgexport/internal/timecodec"
)

const vcf = `BEGIN:VCARD
VERSION:3.0
FN:John Smith
TEL:+1 (555) 010-2000
END:VCARD
`

var now = time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)

func at(h, m int) int64 {
	return timecodec.Encode(time.Date(2025, 1, 15, h, m, 0, 0, time.UTC))
}

type fixture struct {
	db    *archive.DB
	root  string
	dest  string
	opts  export.Options
	store *archivetest.Archive
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	a := archivetest.New(t)
	a.Handle(1, "+15550102000")
	a.Handle(2, "jane@example.com")
	a.Chat(1, "+15550102000", "", false, 1)
	a.Chat(2, "chat-group", "Weekend Plans", true, 1, 2)
	a.Chat(3, "jane@example.com", "", false, 2) // no messages

	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "ab"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "ab", "IMG_0001.jpg"), []byte("jpeg"), 0o644); err != nil {
		t.Fatal(err)
	}
	a.Attachment(1, "~/Library/Messages/Attachments/ab/IMG_0001.jpg", "IMG_0001.jpg", "image/jpeg")
	a.Attachment(2, "~/Library/Messages/Attachments/zz/gone.pdf", "gone.pdf", "application/pdf")

	// physical order differs from date order
	a.Message(archivetest.Msg{ID: 3, ChatID: 1, FromMe: true, Date: at(14, 35), Text: "Sounds good"})
	a.Message(archivetest.Msg{ID: 1, ChatID: 1, HandleID: 1, Date: at(14, 32), Text: "Hey there"})
	a.Message(archivetest.Msg{ID: 2, ChatID: 1, HandleID: 1, Date: at(14, 33), Text: "\ufffc", Attachments: []int64{1}})
	a.Message(archivetest.Msg{ID: 4, ChatID: 2, HandleID: 2, Date: at(9, 0), Text: "see attached", Attachments: []int64{2}})
	a.Message(archivetest.Msg{ID: 5, ChatID: 2, HandleID: 1, Date: at(9, 5)})

	db, err := archive.Open(context.Background(), a.Path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	contacts, err := identity.ReadContacts(strings.NewReader(vcf))
	if err != nil {
		t.Fatalf("ReadContacts() error = %v", err)
	}
	dest := t.TempDir()
	return &fixture{
		db:    db,
		root:  root,
		dest:  dest,
		store: a,
		opts: export.Options{
			Dest:            dest,
			AttachmentsRoot: root,
			Contacts:        contacts,
			Location:        time.UTC,
			Now:             now,
			Logger:          zerolog.Nop(),
		},
	}
}

func readTranscript(t *testing.T, dest, label string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dest, export.ReadableDir, label, "chat.txt"))
	if err != nil {
		t.Fatalf("read transcript %q: %v", label, err)
	}
	return string(data)
}

func TestRun(t *testing.T) {
	f := newFixture(t)

	s, err := export.Run(context.Background(), f.db, f.opts)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if s.Conversations != 2 || s.Messages != 5 || s.Attachments != 1 {
		t.Fatalf("summary = %v", s)
	}
	if s.PerConversation["John Smith"] != 3 || s.PerConversation["Weekend Plans"] != 2 {
		t.Fatalf("per conversation = %v", s.PerConversation)
	}

	got := readTranscript(t, f.dest, "John Smith")
	want := strings.Join([]string{
		strings.Repeat("=", 60),
		"Conversation: John Smith",
		strings.Repeat("=", 60),
		"Messages: 3",
		"Exported: 2025-02-01",
		"",
		"[2025-01-15 2:32 PM] John Smith: Hey there",
		"[2025-01-15 2:33 PM] John Smith: <attachment: IMG_0001.jpg>",
		"[2025-01-15 2:35 PM] Me: Sounds good",
		"",
	}, "\n")
	if got != want {
		t.Fatalf("transcript =\n%s\nwant\n%s", got, want)
	}

	copied, err := os.ReadFile(filepath.Join(f.dest, export.ReadableDir, "John Smith", "attachments", "IMG_0001.jpg"))
	if err != nil || string(copied) != "jpeg" {
		t.Fatalf("attachment copy = %q, %v", copied, err)
	}

	group := readTranscript(t, f.dest, "Weekend Plans")
	if !strings.Contains(group, "Group Chat: Weekend Plans") {
		t.Errorf("group header missing:\n%s", group)
	}
	if !strings.Contains(group, "jane@example.com: see attached\n    <attachment: gone.pdf (not available)>") {
		t.Errorf("missing attachment not annotated:\n%s", group)
	}
	if _, err := os.Stat(filepath.Join(f.dest, export.ReadableDir, "Weekend Plans", "attachments")); !os.IsNotExist(err) {
		t.Errorf("attachments dir created for unavailable file: %v", err)
	}
	if _, err := os.Stat(filepath.Join(f.dest, export.ReadableDir, "jane@example.com")); !os.IsNotExist(err) {
		t.Errorf("empty conversation exported: %v", err)
	}
}

func TestRunIsRepeatable(t *testing.T) {
	f := newFixture(t)
	if _, err := export.Run(context.Background(), f.db, f.opts); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	first := readTranscript(t, f.dest, "John Smith")

	if _, err := export.Run(context.Background(), f.db, f.opts); err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if second := readTranscript(t, f.dest, "John Smith"); second != first {
		t.Fatalf("transcripts differ between runs:\n%s\n---\n%s", first, second)
	}
}

func TestRunFilter(t *testing.T) {
	f := newFixture(t)
	f.opts.Filter = archive.Filter{Handle: "JANE@example.com"}

	s, err := export.Run(context.Background(), f.db, f.opts)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if s.Conversations != 1 || s.PerConversation["Weekend Plans"] != 2 {
		t.Fatalf("summary = %v %v", s, s.PerConversation)
	}
}

func TestRunFilterNoMatch(t *testing.T) {
	f := newFixture(t)
	f.opts.Filter = archive.Filter{Handle: "nobody@example.com"}

	s, err := export.Run(context.Background(), f.db, f.opts)
	if !errors.Is(err, export.ErrNoConversations) {
		t.Fatalf("Run() error = %v, want ErrNoConversations", err)
	}
	if s.Conversations != 0 {
		t.Fatalf("summary = %v", s)
	}
}

func TestRunCanceled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := export.Run(ctx, f.db, f.opts); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
}

func TestWriteManifest(t *testing.T) {
	f := newFixture(t)
	s, err := export.Run(context.Background(), f.db, f.opts)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	m := export.NewManifest("msgexport", f.store.Path, now)
	m.Summary = &s
	path, err := export.WriteManifest(f.dest, m)
	if err != nil {
		t.Fatalf("WriteManifest() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]interface{}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("manifest is not JSON: %v", err)
	}
	if got["run_id"] == "" || got["tool"] != "msgexport" || got["source_db"] != f.store.Path {
		t.Errorf("manifest header = %v", got)
	}
	if got["conversations"] != float64(2) || got["messages"] != float64(5) || got["attachments_copied"] != float64(1) {
		t.Errorf("manifest counts = %v", got)
	}
	if _, ok := got["backup"]; ok {
		t.Errorf("backup section present without a backup")
	}
}

func TestLibrary(t *testing.T) {
	f := newFixture(t)
	lib := export.NewLibrary(f.db, f.opts)
	ctx := context.Background()

	convs, err := lib.Conversations(ctx)
	if err != nil {
		t.Fatalf("Conversations() error = %v", err)
	}
	var labels []string
	for _, c := range convs {
		labels = append(labels, c.Label)
	}
	if strings.Join(labels, "|") != "John Smith|Weekend Plans|" {
		t.Fatalf("labels = %q", labels)
	}

	conv, err := lib.Conversation(ctx, 1)
	if err != nil || conv == nil {
		t.Fatalf("Conversation(1) = %v, %v", conv, err)
	}
	got, err := lib.TranscriptString(ctx, *conv)
	if err != nil {
		t.Fatalf("TranscriptString() error = %v", err)
	}
	if !strings.Contains(got, "[2025-01-15 2:32 PM] John Smith: Hey there") {
		t.Errorf("transcript =\n%s", got)
	}
	if names := lib.Participants(*conv); len(names) != 1 || names[0] != "John Smith" {
		t.Errorf("Participants() = %q", names)
	}

	if missing, err := lib.Conversation(ctx, 99); err != nil || missing != nil {
		t.Fatalf("Conversation(99) = %v, %v; want nil, nil", missing, err)
	}
}
