// Package summary accumulates export totals across conversations.
package summary

import "fmt"

// Summary is the finalized record of one export run.
type Summary struct {
	Conversations   int            `json:"conversations"`
	Messages        int            `json:"messages"`
	Attachments     int            `json:"attachments_copied"`
	PerConversation map[string]int `json:"per_conversation"`
}

func (s Summary) String() string {
	return fmt.Sprintf("conversations=%d messages=%d attachments=%d",
		s.Conversations, s.Messages, s.Attachments)
}

// Builder collects per-conversation counts. It is not safe for concurrent
// use; the export pipeline records one conversation at a time.
type Builder struct {
	s Summary
}

func NewBuilder() *Builder {
	return &Builder{s: Summary{PerConversation: make(map[string]int)}}
}

// Record adds one conversation's counts. Recording the same label again adds
// to its existing count.
func (b *Builder) Record(label string, messages, attachments int) {
	if _, seen := b.s.PerConversation[label]; !seen {
		b.s.Conversations++
	}
	b.s.PerConversation[label] += messages
	b.s.Messages += messages
	b.s.Attachments += attachments
}

// Finalize returns a copy of the totals.
func (b *Builder) Finalize() Summary {
	out := b.s
	out.PerConversation = make(map[string]int, len(b.s.PerConversation))
	for k, v := range b.s.PerConversation {
		out.PerConversation[k] = v
	}
	return out
}
