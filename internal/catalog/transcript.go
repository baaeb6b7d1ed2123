package catalog

type (
	MessageRole string

	// Message is one role-tagged turn of an AI discussion held against
	// a note.
	Message struct {
		Role    MessageRole `json:"role"`
		Content string      `json:"content"`
	}

	// Transcript is the ordered history of a discussion. It is persisted
	// as an opaque JSONB blob but treated as a strongly-typed sequence
	// everywhere in-process.
	Transcript []Message
)

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Extend returns a new transcript comprised of the existing history plus
// the provided user turn and assistant reply, in that order.
func (transcript Transcript) Extend(userContent string, assistantContent string) Transcript {
	extended := make(Transcript, 0, len(transcript)+2)
	extended = append(extended, transcript...)
	extended = append(extended,
		Message{Role: RoleUser, Content: userContent},
		Message{Role: RoleAssistant, Content: assistantContent},
	)

	return extended
}
