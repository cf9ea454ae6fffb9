package archive

import "path"

// GroupStyle is the chat.style value the archive uses for group threads.
const GroupStyle = 43

type Participant struct {
	ID     int64
	Handle string // phone number or account id as stored
}

type Conversation struct {
	ID           int64
	Identifier   string // chat_identifier
	DisplayName  string // user-assigned group name, often empty
	Group        bool
	Participants []Participant
	MessageCount int
	Label        string // assigned by the export pipeline
}

// Handles returns the raw participant handles in participant order.
func (c Conversation) Handles() []string {
	out := make([]string, len(c.Participants))
	for i, p := range c.Participants {
		out[i] = p.Handle
	}
	return out
}

type Message struct {
	ID             int64
	ConversationID int64
	Ordinal        int          // 0-based position within its stream
	Sender         *Participant // nil when sent by the archive owner
	Date           int64        // raw archive timestamp
	Text           string
	Service        string // iMessage, SMS, ...
	AssociatedType int    // non-zero for tapbacks and other associated messages
	Attachments    int    // number of linked attachment rows
}

type Attachment struct {
	ID           int64
	MessageID    int64
	Filename     string // stored path, usually "~/Library/Messages/Attachments/..."
	TransferName string // original file name
	MIMEType     string
	TotalBytes   int64

	// Filled in by the attachment resolver.
	SourcePath string
	Available  bool
}

// Name is the file name shown in transcripts: the original transfer name,
// else the base of the stored path, else "file".
func (a Attachment) Name() string {
	if a.TransferName != "" {
		return a.TransferName
	}
	if a.Filename != "" {
		if base := path.Base(a.Filename); base != "." && base != "/" {
			return base
		}
	}
	return "file"
}
