package dto

import "time"

type SendChatRequest struct {
	Message   string        `json:"message" validate:"required,max=1000"`
	History   []ChatTurnDTO `json:"history"`
	SessionId string        `json:"session_id,omitempty"`
}

type SendChatResponse struct {
	Response   string    `json:"response"`
	TokenCount int       `json:"tokenCount"`
	Usage      UsageDTO  `json:"usage"`
	Timestamp  time.Time `json:"timestamp"`
}

type ChatConfigResponse struct {
	HasApiKey bool      `json:"hasApiKey"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type ChatHistoryResponse struct {
	SessionId string            `json:"session_id"`
	Turns     []ChatHistoryTurn `json:"turns"`
}

type ChatHistoryTurn struct {
	Role      string        `json:"role"`
	Text      string        `json:"text"`
	Citations []CitationDTO `json:"citations,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}
