package models

type Role string

const (
	RoleUser Role = "USER"
	RoleAI   Role = "AI"
)

// ChatMessage is one displayed chat turn. ID is its identity.
type ChatMessage struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	Role      Role      `json:"role"`
	CreatedAt Timestamp `json:"createdAt"`
}

type ChatSession struct {
	ID          int64     `json:"id"`
	SessionName string    `json:"sessionName"`
	DocumentID  int64     `json:"documentId"`
	CreatedAt   Timestamp `json:"createdAt"`
}

// ChatSessionDetail is a session together with its persisted history.
type ChatSessionDetail struct {
	ChatSession
	Messages []MessageRecord `json:"messages"`
}

// RecordKind tells how a MessageRecord should be displayed.
type RecordKind int

const (
	// RecordSingle is one message with an explicit role.
	RecordSingle RecordKind = iota
	// RecordExchange is a persisted row holding a user turn and an AI turn.
	RecordExchange
)

// MessageRecord is a message as the backend sends it. Depending on the code
// path the text lives in content, message or response, and a history row may
// carry both halves of an exchange.
type MessageRecord struct {
	ID        int64     `json:"id"`
	Role      Role      `json:"role,omitempty"`
	Content   *string   `json:"content,omitempty"`
	Message   *string   `json:"message,omitempty"`
	Response  *string   `json:"response,omitempty"`
	CreatedAt Timestamp `json:"createdAt"`
}

// Kind reports RecordSingle when the record names its role.
func (r MessageRecord) Kind() RecordKind {
	if r.Role != "" {
		return RecordSingle
	}
	return RecordExchange
}

// Text returns the record's text as seen from role, trying content first,
// then the role's own field, then the other one. Absent fields never yield
// text; ok is false when none is present.
func (r MessageRecord) Text(role Role) (text string, ok bool) {
	order := []*string{r.Content, r.Message, r.Response}
	if role == RoleAI {
		order = []*string{r.Content, r.Response, r.Message}
	}
	for _, s := range order {
		if s != nil {
			return *s, true
		}
	}
	return "", false
}

// AsMessage converts the record into a displayed message with the given role.
func (r MessageRecord) AsMessage(role Role) ChatMessage {
	text, _ := r.Text(role)
	return ChatMessage{ID: r.ID, Content: text, Role: role, CreatedAt: r.CreatedAt}
}

// SendResult is the backend's reply to a posted chat message.
type SendResult struct {
	UserMessage MessageRecord `json:"userMessage"`
	AIResponse  MessageRecord `json:"aiResponse"`
}

// Messages returns the confirmed pair in display order: user, then AI.
func (s SendResult) Messages() []ChatMessage {
	return []ChatMessage{
		s.UserMessage.AsMessage(RoleUser),
		s.AIResponse.AsMessage(RoleAI),
	}
}
