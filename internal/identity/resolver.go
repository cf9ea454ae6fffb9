// Package identity turns archive handles into display labels and assigns each
// conversation a filesystem-safe label that is unique within one export run.
package identity

import (
	"fmt"
	"strings"
)

// ParticipantSeparator joins participant labels into a conversation label.
const ParticipantSeparator = ", "

// ParticipantLabel returns name when it is non-empty, otherwise the raw handle.
func ParticipantLabel(handle, name string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	return handle
}

// Resolver assigns labels for a single export run. Labels are compared
// case-insensitively because the default macOS filesystem is. A Resolver is
// not safe for concurrent use.
type Resolver struct {
	contacts *Contacts
	maxLen   int
	owners   map[string]int64 // folded label -> conversation id
	labels   map[int64]string // conversation id -> assigned label
}

// NewResolver creates a resolver. contacts may be nil; maxLen <= 0 selects
// DefaultMaxLabel.
func NewResolver(contacts *Contacts, maxLen int) *Resolver {
	if maxLen <= 0 {
		maxLen = DefaultMaxLabel
	}
	if maxLen < minLabel {
		maxLen = minLabel
	}
	return &Resolver{
		contacts: contacts,
		maxLen:   maxLen,
		owners:   make(map[string]int64),
		labels:   make(map[int64]string),
	}
}

// Participant labels a handle using the contacts book when one is loaded.
func (r *Resolver) Participant(handle string) string {
	return ParticipantLabel(handle, r.contacts.Lookup(handle))
}

// Conversation returns the label for conversation id. The first conversation
// to claim a label keeps it; later distinct conversations have " (<id>)"
// appended, and a counter after that if needed. Repeated calls for the same
// id return the same label.
func (r *Resolver) Conversation(id int64, displayName string, participants []string) string {
	if label, ok := r.labels[id]; ok {
		return label
	}

	base := Sanitize(displayName, r.maxLen)
	if base == "" {
		base = Sanitize(strings.Join(participants, ParticipantSeparator), r.maxLen)
	}
	if base == "" {
		base = fmt.Sprintf("Unknown-%d", id)
	}

	label := base
	for n := 1; r.taken(label, id); n++ {
		suffix := fmt.Sprintf(" (%d)", id)
		if n > 1 {
			suffix += fmt.Sprintf("-%d", n)
		}
		label = r.withSuffix(base, suffix)
	}

	r.owners[strings.ToLower(label)] = id
	r.labels[id] = label
	return label
}

func (r *Resolver) taken(label string, id int64) bool {
	owner, ok := r.owners[strings.ToLower(label)]
	return ok && owner != id
}

func (r *Resolver) withSuffix(base, suffix string) string {
	room := r.maxLen - len([]rune(suffix))
	return truncate(base, room, MaxSegmentBytes-len(suffix)) + suffix
}
