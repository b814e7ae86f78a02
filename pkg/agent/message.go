package agent

// Role is the role for a transcript message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleFunction  Role = "function"
)

// FunctionCall is a model request to invoke a declared function.
type FunctionCall struct {
	ID        string
	Name      string
	Arguments string
}

// Message is one provider-agnostic transcript turn.
type Message struct {
	Role    Role
	Content string

	// Name and Call are set on RoleFunction messages only.
	Name string
	Call *FunctionCall
}

// Transcript is the ordered, append-only conversation history.
type Transcript []Message

// Clone returns a copy that shares no backing array with t.
func (t Transcript) Clone() Transcript {
	out := make(Transcript, len(t))
	copy(out, t)
	return out
}
