package service

import (
	"context"
	"strings"
	"time"

	"ai-filesearch-be/internal/dto"
	"ai-filesearch-be/internal/entity"
	"ai-filesearch-be/internal/pkg/apperror"
	"ai-filesearch-be/internal/pkg/logger"
	"ai-filesearch-be/internal/repository/contract"
	"ai-filesearch-be/pkg/analytics"
	"ai-filesearch-be/pkg/gemini"
)

type IChatService interface {
	Send(ctx context.Context, req *dto.SendChatRequest) (*dto.SendChatResponse, error)
	Config() *dto.ChatConfigResponse
	History(ctx context.Context, sessionId string) (*dto.ChatHistoryResponse, error)
	ClearHistory(ctx context.Context, sessionId string) error
}

// chatService is the plain (non-retrieval) assistant. Conversation turns
// are persisted per session so clients can resume; a request may also carry
// its own history, which then takes precedence over the stored one.
type chatService struct {
	client      *gemini.Client
	historyRepo contract.IChatHistoryRepository
	tracker     analytics.ITracker
	log         logger.ILogger
}

func NewChatService(
	client *gemini.Client,
	historyRepo contract.IChatHistoryRepository,
	tracker analytics.ITracker,
	log logger.ILogger,
) IChatService {
	return &chatService{
		client:      client,
		historyRepo: historyRepo,
		tracker:     tracker,
		log:         log,
	}
}

func (s *chatService) Send(ctx context.Context, req *dto.SendChatRequest) (*dto.SendChatResponse, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, apperror.NewValidation("message is required and must be a non-empty string")
	}
	if len(req.Message) > 1000 {
		return nil, apperror.NewValidation("message too long, please keep it under 1000 characters")
	}

	history := req.History
	if len(history) == 0 && req.SessionId != "" {
		stored, err := s.historyRepo.Get(ctx, req.SessionId)
		if err != nil {
			s.log.Warn("Chat", "Failed to load stored history", map[string]interface{}{
				"session_id": req.SessionId,
				"error":      err.Error(),
			})
		} else {
			for _, turn := range stored {
				history = append(history, dto.ChatTurnDTO{Role: turn.Role, Text: turn.Text})
			}
		}
	}

	contents := buildContents(history)
	contents = append(contents, gemini.NewTextContent(gemini.RoleUser, req.Message))

	s.log.Info("Chat", "Request received", map[string]interface{}{
		"message_length": len(req.Message),
		"history_length": len(contents),
		"model":          s.client.Model(),
	})

	result, err := s.client.GenerateContent(ctx, contents, nil)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if req.SessionId != "" {
		err := s.historyRepo.Append(ctx, req.SessionId,
			entity.ChatTurn{Role: gemini.RoleUser, Text: req.Message, CreatedAt: now},
			entity.ChatTurn{Role: gemini.RoleModel, Text: result.Text, CreatedAt: now},
		)
		if err != nil {
			s.log.Warn("Chat", "Failed to persist turns", map[string]interface{}{
				"session_id": req.SessionId,
				"error":      err.Error(),
			})
		}
	}

	s.tracker.Track("Chat Message Sent", map[string]interface{}{
		"message_length": len(req.Message),
		"total_tokens":   result.Usage.TotalTokens,
	})

	return &dto.SendChatResponse{
		Response:   result.Text,
		TokenCount: result.Usage.TotalTokens,
		Usage:      mapUsage(result.Usage),
		Timestamp:  now,
	}, nil
}

func (s *chatService) Config() *dto.ChatConfigResponse {
	hasKey := s.client.HasAPIKey()
	message := "API key is configured"
	if !hasKey {
		message = "API key not configured"
	}
	return &dto.ChatConfigResponse{
		HasApiKey: hasKey,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
}

func (s *chatService) History(ctx context.Context, sessionId string) (*dto.ChatHistoryResponse, error) {
	turns, err := s.historyRepo.Get(ctx, sessionId)
	if err != nil {
		return nil, err
	}

	res := &dto.ChatHistoryResponse{SessionId: sessionId, Turns: []dto.ChatHistoryTurn{}}
	for _, turn := range turns {
		historyTurn := dto.ChatHistoryTurn{
			Role:      turn.Role,
			Text:      turn.Text,
			CreatedAt: turn.CreatedAt,
		}
		for _, citation := range turn.Citations {
			historyTurn.Citations = append(historyTurn.Citations, dto.CitationDTO{
				Index:   citation.Index,
				Source:  citation.Source,
				Title:   citation.Title,
				Excerpt: citation.Excerpt,
			})
		}
		res.Turns = append(res.Turns, historyTurn)
	}
	return res, nil
}

func (s *chatService) ClearHistory(ctx context.Context, sessionId string) error {
	return s.historyRepo.Clear(ctx, sessionId)
}
