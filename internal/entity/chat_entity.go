package entity

import "time"

// ChatTurn is one message in a conversation. The sequence is append-only
// and persisted per session so a client can resume where it left off.
type ChatTurn struct {
	Role      string         `json:"role"` // "user" | "model"
	Text      string         `json:"text"`
	Citations []ChatCitation `json:"citations,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

type ChatCitation struct {
	Index   int    `json:"index"`
	Source  string `json:"source"`
	Title   string `json:"title"`
	Excerpt string `json:"excerpt,omitempty"`
}
