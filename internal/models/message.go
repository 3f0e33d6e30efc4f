package models

import "time"

// Role identifies who authored a transcript entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of a session transcript. Messages are append-only and
// never mutated after they are added.
type Message struct {
	ID        string        `json:"id"`
	Role      Role          `json:"role"`
	Content   string        `json:"content"`
	CreatedAt time.Time     `json:"created_at"`
	File      *UploadedFile `json:"file,omitempty"`
	Quiz      *Quiz         `json:"quiz,omitempty"`
	FullText  string        `json:"full_text,omitempty"`
}

// Clone returns a deep copy so callers can't reach into session state.
func (m *Message) Clone() *Message {
	if m == nil {
		return nil
	}
	c := *m
	c.File = m.File.Clone()
	c.Quiz = m.Quiz.Clone()
	return &c
}
