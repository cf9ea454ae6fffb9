package export

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/Zuo-Peng/msgexport/internal/archive"
	"github.com/Zuo-Peng/msgexport/internal/attachment"
	"github.com/Zuo-Peng/msgexport/internal/identity"
	"github.com/Zuo-Peng/msgexport/internal/render"
)

// Library is read access to labeled conversations and their transcripts.
// Labels are assigned the same way Run assigns them, so a conversation shown
// by list or preview matches its directory in an export of the same archive.
// It is safe for concurrent use; calls are serialized.
type Library struct {
	db       *archive.DB
	filter   archive.Filter
	labels   *identity.Resolver
	atts     *attachment.Resolver
	renderer *render.Renderer

	mu    sync.Mutex
	convs []archive.Conversation
}

func NewLibrary(db *archive.DB, opts Options) *Library {
	labels := identity.NewResolver(opts.Contacts, opts.LabelMaxLen)
	return &Library{
		db:       db,
		filter:   opts.Filter,
		labels:   labels,
		atts:     attachment.NewResolver(db, opts.AttachmentsRoot, opts.Home),
		renderer: render.New(labels, render.Options{Location: opts.Location, ExportDate: opts.Now}),
	}
}

// Conversations lists the conversations matching the filter. Conversations
// without messages are included but carry no label.
func (l *Library) Conversations(ctx context.Context) ([]archive.Conversation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.load(ctx); err != nil {
		return nil, err
	}
	return slices.Clone(l.convs), nil
}

// Conversation returns one labeled conversation, or nil if it is not listed.
func (l *Library) Conversation(ctx context.Context, id int64) (*archive.Conversation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.load(ctx); err != nil {
		return nil, err
	}
	for _, c := range l.convs {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, nil
}

func (l *Library) load(ctx context.Context) error {
	if l.convs != nil {
		return nil
	}
	convs, err := l.db.ListConversations(ctx, l.filter)
	if err != nil {
		return err
	}
	for i := range convs {
		c := &convs[i]
		if c.MessageCount == 0 {
			continue
		}
		names := make([]string, 0, len(c.Participants))
		for _, h := range c.Handles() {
			names = append(names, l.labels.Participant(h))
		}
		c.Label = l.labels.Conversation(c.ID, c.DisplayName, names)
	}
	if convs == nil {
		convs = []archive.Conversation{}
	}
	l.convs = convs
	return nil
}

// Participants returns the display labels of conv's participants.
func (l *Library) Participants(conv archive.Conversation) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	names := make([]string, 0, len(conv.Participants))
	for _, h := range conv.Handles() {
		names = append(names, l.labels.Participant(h))
	}
	return names
}

// Transcript streams conv's transcript into w.
func (l *Library) Transcript(ctx context.Context, conv archive.Conversation, w io.Writer) (render.Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	stream, err := l.db.Messages(ctx, conv.ID)
	if err != nil {
		return render.Result{}, fmt.Errorf("messages for chat %d: %w", conv.ID, err)
	}
	defer stream.Close()

	res, err := l.renderer.Render(w, conv, NewEntries(ctx, stream, l.atts))
	if err != nil {
		return res, fmt.Errorf("render chat %d: %w", conv.ID, err)
	}
	return res, nil
}

// TranscriptString is Transcript into a string.
func (l *Library) TranscriptString(ctx context.Context, conv archive.Conversation) (string, error) {
	var b strings.Builder
	if _, err := l.Transcript(ctx, conv, &b); err != nil {
		return "", err
	}
	return b.String(), nil
}
