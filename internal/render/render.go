// Package render turns an ordered message sequence into a plain-text
// transcript and the list of attachment files that belong next to it.
package render

import (
	"bufio"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/Zuo-Peng/msgexport/internal/archive"
	"github.com/Zuo-Peng/msgexport/internal/identity"
	"github.com/Zuo-Peng/msgexport/internal/timecodec"
)

// AttachmentsDir is the per-conversation directory attachments are copied to.
const AttachmentsDir = "attachments"

const (
	ownerLabel   = "Me"
	unknownLabel = "Unknown"
	objectChar   = "\ufffc" // placeholder the archive leaves where an attachment sat
	partIndent   = "\n    "
)

var headerRule = strings.Repeat("=", 60)

// Entry is one message with its resolved attachments.
type Entry struct {
	Message     archive.Message
	Attachments []archive.Attachment
}

// Source yields entries in transcript order.
type Source interface {
	Next() bool
	Entry() Entry
	Err() error
}

// Labeler names message senders.
type Labeler interface {
	Participant(handle string) string
}

// CopyItem pairs an attachment's source file with its destination path,
// relative to the conversation directory and always slash-separated.
type CopyItem struct {
	Source     string
	Dest       string
	Attachment archive.Attachment
}

// Result describes one rendered transcript.
type Result struct {
	Messages    int // entries consumed, including ones that printed nothing
	Attachments int // attachments referenced
	Unavailable int // attachments whose file was missing
	Copies      []CopyItem
}

type Options struct {
	// Location for timestamps; nil means time.Local.
	Location *time.Location
	// ExportDate printed in the header; zero means the time New was called.
	ExportDate time.Time
}

// Renderer formats transcripts. It keeps no state between Render calls, so
// rendering the same input twice yields identical output.
type Renderer struct {
	labels Labeler
	opts   Options
}

func New(labels Labeler, opts Options) *Renderer {
	if opts.ExportDate.IsZero() {
		opts.ExportDate = time.Now()
	}
	return &Renderer{labels: labels, opts: opts}
}

// Render writes the transcript of conv to w, consuming src.
func (r *Renderer) Render(w io.Writer, conv archive.Conversation, src Source) (Result, error) {
	var res Result
	bw := bufio.NewWriter(w)
	var werr error
	writeLine := func(s string) {
		if werr != nil {
			return
		}
		if _, err := bw.WriteString(s); err != nil {
			werr = err
			return
		}
		werr = bw.WriteByte('\n')
	}

	// header
	kind := "Conversation"
	if conv.Group {
		kind = "Group Chat"
	}
	label := conv.Label
	if label == "" {
		label = fmt.Sprintf("Unknown-%d", conv.ID)
	}
	writeLine(headerRule)
	writeLine(fmt.Sprintf("%s: %s", kind, label))
	writeLine(headerRule)
	writeLine(fmt.Sprintf("Messages: %d", conv.MessageCount))
	writeLine(fmt.Sprintf("Exported: %s", r.opts.ExportDate.In(r.location()).Format("2006-01-02")))
	writeLine("")

	names := newNameSet()
	for src.Next() {
		e := src.Entry()
		res.Messages++
		if line, ok := r.messageLine(e, names, &res); ok {
			writeLine(line)
		}
	}
	if err := src.Err(); err != nil {
		return res, err
	}
	if werr != nil {
		return res, fmt.Errorf("write transcript: %w", werr)
	}
	if err := bw.Flush(); err != nil {
		return res, fmt.Errorf("write transcript: %w", err)
	}
	return res, nil
}

// messageLine renders one entry. ok is false for messages that carry nothing
// printable.
func (r *Renderer) messageLine(e Entry, names *nameSet, res *Result) (line string, ok bool) {
	m := e.Message
	ts := timecodec.Format(m.Date, r.location())
	sender := r.sender(m)

	if verb := Reaction(m.AssociatedType); verb != "" {
		target := strings.TrimSpace(m.Text)
		if target == "" || strings.HasPrefix(target, objectChar) {
			target = "a message"
		}
		return fmt.Sprintf("[%s] %s %s %s", ts, sender, verb, target), true
	}

	var parts []string
	if body := strings.TrimSpace(strings.ReplaceAll(m.Text, objectChar, "")); body != "" {
		parts = append(parts, body)
	}
	for _, a := range e.Attachments {
		res.Attachments++
		name := a.Name()
		if !a.Available {
			res.Unavailable++
			parts = append(parts, fmt.Sprintf("<attachment: %s (not available)>", name))
			continue
		}
		res.Copies = append(res.Copies, CopyItem{
			Source:     a.SourcePath,
			Dest:       path.Join(AttachmentsDir, names.claim(identity.SanitizeFileName(name))),
			Attachment: a,
		})
		parts = append(parts, fmt.Sprintf("<attachment: %s>", name))
	}

	if len(parts) == 0 {
		return "", false
	}
	return fmt.Sprintf("[%s] %s: %s", ts, sender, strings.Join(parts, partIndent)), true
}

func (r *Renderer) sender(m archive.Message) string {
	if m.Sender == nil {
		return ownerLabel
	}
	if m.Sender.Handle == "" {
		return unknownLabel
	}
	if r.labels == nil {
		return m.Sender.Handle
	}
	return r.labels.Participant(m.Sender.Handle)
}

func (r *Renderer) location() *time.Location {
	if r.opts.Location == nil {
		return time.Local
	}
	return r.opts.Location
}

// nameSet hands out destination file names unique within one conversation,
// compared case-insensitively.
type nameSet struct {
	used map[string]struct{}
}

func newNameSet() *nameSet {
	return &nameSet{used: make(map[string]struct{})}
}

func (s *nameSet) claim(name string) string {
	candidate := name
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for n := 1; ; n++ {
		key := strings.ToLower(candidate)
		if _, ok := s.used[key]; !ok {
			s.used[key] = struct{}{}
			return candidate
		}
		candidate = fmt.Sprintf("%s_%d%s", base, n, ext)
	}
}
