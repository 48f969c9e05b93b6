package dto

import "time"

type CreateStoreRequest struct {
	DisplayName string `json:"displayName"`
}

type StoreResponse struct {
	Name        string         `json:"name"`
	DisplayName string         `json:"displayName"`
	Files       []FileResponse `json:"files,omitempty"`
}

type FileResponse struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	MimeType    string `json:"mimeType,omitempty"`
}

// OperationStatusResponse mirrors the tracked state of one upload
// operation: server status plus the local error that stops polling.
type OperationStatusResponse struct {
	Name              string        `json:"name"`
	StoreName         string        `json:"store_name,omitempty"`
	FileDisplayName   string        `json:"file_display_name,omitempty"`
	Done              bool          `json:"done"`
	File              *FileResponse `json:"file,omitempty"`
	Error             string        `json:"error,omitempty"`
	TransientFailures int           `json:"transient_failures,omitempty"`
}

type UploadResponse struct {
	Operation OperationStatusResponse `json:"operation"`
}

// ChatTurnDTO accepts both the protocol-level role and the UI-level sender
// field; a missing role falls back to sender mapping (user stays user,
// anything else becomes model).
type ChatTurnDTO struct {
	Role   string `json:"role,omitempty"`
	Sender string `json:"sender,omitempty"`
	Text   string `json:"text"`
}

type FileSearchChatRequest struct {
	Message    string        `json:"message" validate:"required,max=1000"`
	History    []ChatTurnDTO `json:"history"`
	StoreNames []string      `json:"fileSearchStoreNames" validate:"required,min=1"`
	SessionId  string        `json:"session_id,omitempty"`
}

type CitationDTO struct {
	Index   int    `json:"index"`
	Source  string `json:"source"`
	Title   string `json:"title"`
	Excerpt string `json:"excerpt,omitempty"`
}

type UsageDTO struct {
	PromptTokens     int `json:"prompt_tokens"`
	CandidatesTokens int `json:"candidates_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type FileSearchChatResponse struct {
	Response   string        `json:"response"`
	TokenCount int           `json:"tokenCount"`
	Usage      UsageDTO      `json:"usage"`
	Citations  []CitationDTO `json:"citations,omitempty"`
	Timestamp  time.Time     `json:"timestamp"`
}
