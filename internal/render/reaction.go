package render

// reactions maps associated_message_type values of tapback messages to the
// verb shown in transcripts.
var reactions = map[int]string{
	2000: "Loved",
	2001: "Liked",
	2002: "Disliked",
	2003: "Laughed at",
	2004: "Emphasized",
	2005: "Questioned",
	3000: "Removed love from",
	3001: "Removed like from",
	3002: "Removed dislike from",
	3003: "Removed laugh from",
	3004: "Removed emphasis from",
	3005: "Removed question from",
}

// Reaction returns the verb for a tapback type, or "" for ordinary messages.
func Reaction(associatedType int) string {
	return reactions[associatedType]
}
