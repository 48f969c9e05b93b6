package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"ai-filesearch-be/internal/dto"
	"ai-filesearch-be/internal/entity"
	"ai-filesearch-be/internal/pkg/apperror"
	"ai-filesearch-be/internal/pkg/logger"
	"ai-filesearch-be/internal/repository/contract"
	"ai-filesearch-be/pkg/analytics"
	"ai-filesearch-be/pkg/gemini"

	"github.com/patrickmn/go-cache"
)

const storeListCacheKey = "filesearch:stores"

type IFileSearchService interface {
	CreateStore(ctx context.Context, displayName string) (*dto.StoreResponse, error)
	ListStores(ctx context.Context) ([]dto.StoreResponse, error)
	GetStoreDetails(ctx context.Context, storeName string) (*dto.StoreResponse, error)
	DeleteStore(ctx context.Context, storeName string) error
	UploadFile(ctx context.Context, data []byte, storeName, displayName, mimeType string) (*dto.UploadResponse, error)
	OperationStatus(ctx context.Context, operationName string) (*dto.OperationStatusResponse, error)
	Operations() []dto.OperationStatusResponse
	Ask(ctx context.Context, req *dto.FileSearchChatRequest) (*dto.FileSearchChatResponse, error)
}

type fileSearchService struct {
	client      *gemini.Client
	poller      *OperationPoller
	historyRepo contract.IChatHistoryRepository
	tracker     analytics.ITracker
	cache       *cache.Cache
	log         logger.ILogger
}

func NewFileSearchService(
	client *gemini.Client,
	poller *OperationPoller,
	historyRepo contract.IChatHistoryRepository,
	tracker analytics.ITracker,
	log logger.ILogger,
) IFileSearchService {
	return &fileSearchService{
		client:      client,
		poller:      poller,
		historyRepo: historyRepo,
		tracker:     tracker,
		cache:       cache.New(30*time.Second, 5*time.Minute),
		log:         log,
	}
}

func (s *fileSearchService) CreateStore(ctx context.Context, displayName string) (*dto.StoreResponse, error) {
	store, err := s.client.CreateStore(ctx, displayName)
	if err != nil {
		return nil, err
	}
	s.cache.Delete(storeListCacheKey)

	s.tracker.Track("Store Created", map[string]interface{}{
		"store_name":   store.Name,
		"display_name": store.DisplayName,
	})
	return mapStore(store), nil
}

func (s *fileSearchService) ListStores(ctx context.Context) ([]dto.StoreResponse, error) {
	if cached, found := s.cache.Get(storeListCacheKey); found {
		return cached.([]dto.StoreResponse), nil
	}

	stores, err := s.client.ListStores(ctx)
	if err != nil {
		return nil, err
	}

	res := make([]dto.StoreResponse, 0, len(stores))
	for i := range stores {
		res = append(res, *mapStore(&stores[i]))
	}
	s.cache.Set(storeListCacheKey, res, cache.DefaultExpiration)
	return res, nil
}

func (s *fileSearchService) GetStoreDetails(ctx context.Context, storeName string) (*dto.StoreResponse, error) {
	store, err := s.client.GetStoreDetails(ctx, storeName)
	if err != nil {
		return nil, err
	}
	return mapStore(store), nil
}

func (s *fileSearchService) DeleteStore(ctx context.Context, storeName string) error {
	if err := s.client.DeleteStore(ctx, storeName); err != nil {
		return err
	}
	s.cache.Delete(storeListCacheKey)
	// Pending uploads into a deleted store can never surface files.
	s.poller.ForgetStore(storeName)

	s.tracker.Track("Store Deleted", map[string]interface{}{
		"store_name": storeName,
	})
	return nil
}

func (s *fileSearchService) UploadFile(ctx context.Context, data []byte, storeName, displayName, mimeType string) (*dto.UploadResponse, error) {
	if len(data) == 0 {
		return nil, apperror.NewValidation("file is required")
	}
	if strings.TrimSpace(storeName) == "" {
		return nil, apperror.NewValidation("store name is required")
	}
	if displayName == "" {
		displayName = gemini.DefaultFileDisplayName
	}

	op, err := s.client.UploadFile(ctx, data, storeName, displayName, mimeType)
	if err != nil {
		return nil, err
	}

	s.poller.Track(op, storeName, displayName)
	s.tracker.Track("File Upload Started", map[string]interface{}{
		"store_name": storeName,
		"file_name":  displayName,
		"file_size":  len(data),
	})

	state, _ := s.poller.Status(op.Name)
	return &dto.UploadResponse{Operation: MapTrackedOperation(state)}, nil
}

// OperationStatus prefers the poller's local view, which carries the
// transient bookkeeping; untracked handles fall through to the remote. A
// remote 404 is reported as a still-pending operation, not an error,
// because fresh operations may not be queryable yet.
func (s *fileSearchService) OperationStatus(ctx context.Context, operationName string) (*dto.OperationStatusResponse, error) {
	if state, ok := s.poller.Status(operationName); ok {
		res := MapTrackedOperation(state)
		return &res, nil
	}

	op, err := s.client.GetOperation(ctx, operationName)
	if err != nil {
		var notFound *apperror.NotFoundError
		if asNotFound(err, &notFound) {
			return &dto.OperationStatusResponse{
				Name: gemini.NormalizeOperationName(operationName),
				Done: false,
			}, nil
		}
		return nil, err
	}

	res := &dto.OperationStatusResponse{Name: op.Name, Done: op.Done}
	if op.Error != nil {
		res.Error = op.Error.Message
	}
	if op.Response != nil && op.Response.File != nil {
		res.File = &dto.FileResponse{
			Name:        op.Response.File.Name,
			DisplayName: op.Response.File.DisplayName,
			MimeType:    op.Response.File.MimeType,
		}
	}
	return res, nil
}

func (s *fileSearchService) Operations() []dto.OperationStatusResponse {
	states := s.poller.List()
	res := make([]dto.OperationStatusResponse, 0, len(states))
	for _, state := range states {
		res = append(res, MapTrackedOperation(state))
	}
	return res
}

// Ask sends a message against one or more stores with the retrieval tool
// enabled and extracts answer, usage and citations. When the request names
// a session, turns are persisted the same way the plain chat persists them,
// with citations attached to the model turn.
func (s *fileSearchService) Ask(ctx context.Context, req *dto.FileSearchChatRequest) (*dto.FileSearchChatResponse, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, apperror.NewValidation("message is required and must be a non-empty string")
	}
	if len(req.Message) > 1000 {
		return nil, apperror.NewValidation("message too long, please keep it under 1000 characters")
	}
	if len(req.StoreNames) == 0 {
		return nil, apperror.NewValidation("at least one File Search store name is required")
	}

	// Best-effort diagnostics: a store that fails to resolve is logged and
	// the ask proceeds anyway, it may still work.
	for _, storeName := range req.StoreNames {
		if _, err := s.client.GetStoreDetails(ctx, storeName); err != nil {
			s.log.Warn("FileSearch", "Store verification failed", map[string]interface{}{
				"store_name": storeName,
				"error":      err.Error(),
			})
		}
	}

	history := req.History
	if len(history) == 0 && req.SessionId != "" {
		stored, err := s.historyRepo.Get(ctx, req.SessionId)
		if err != nil {
			s.log.Warn("FileSearch", "Failed to load stored history", map[string]interface{}{
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

	result, err := s.client.GenerateContent(ctx, contents, req.StoreNames)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if req.SessionId != "" {
		modelTurn := entity.ChatTurn{Role: gemini.RoleModel, Text: result.Text, CreatedAt: now}
		for _, c := range result.Citations {
			modelTurn.Citations = append(modelTurn.Citations, entity.ChatCitation{
				Index:   c.Index,
				Source:  c.Source,
				Title:   c.Title,
				Excerpt: c.Excerpt,
			})
		}
		err := s.historyRepo.Append(ctx, req.SessionId,
			entity.ChatTurn{Role: gemini.RoleUser, Text: req.Message, CreatedAt: now},
			modelTurn,
		)
		if err != nil {
			s.log.Warn("FileSearch", "Failed to persist turns", map[string]interface{}{
				"session_id": req.SessionId,
				"error":      err.Error(),
			})
		}
	}

	s.tracker.Track("File Search Chat", map[string]interface{}{
		"store_count":   len(req.StoreNames),
		"has_citations": len(result.Citations) > 0,
		"total_tokens":  result.Usage.TotalTokens,
	})

	return &dto.FileSearchChatResponse{
		Response:   result.Text,
		TokenCount: result.Usage.TotalTokens,
		Usage:      mapUsage(result.Usage),
		Citations:  mapCitations(result.Citations),
		Timestamp:  now,
	}, nil
}

func asNotFound(err error, target **apperror.NotFoundError) bool {
	return errors.As(err, target)
}

func mapStore(store *gemini.Store) *dto.StoreResponse {
	res := &dto.StoreResponse{
		Name:        store.Name,
		DisplayName: store.DisplayName,
	}
	for _, file := range store.Files {
		res.Files = append(res.Files, dto.FileResponse{
			Name:        file.Name,
			DisplayName: file.DisplayName,
			MimeType:    file.MimeType,
		})
	}
	return res
}

func MapTrackedOperation(state TrackedOperation) dto.OperationStatusResponse {
	res := dto.OperationStatusResponse{
		Name:              state.Name,
		StoreName:         state.StoreName,
		FileDisplayName:   state.FileDisplayName,
		Done:              state.Done,
		Error:             state.Error,
		TransientFailures: state.TransientFailures,
	}
	if state.File != nil {
		res.File = &dto.FileResponse{
			Name:        state.File.Name,
			DisplayName: state.File.DisplayName,
			MimeType:    state.File.MimeType,
		}
	}
	return res
}

func mapUsage(usage gemini.Usage) dto.UsageDTO {
	return dto.UsageDTO{
		PromptTokens:     usage.PromptTokens,
		CandidatesTokens: usage.CandidatesTokens,
		TotalTokens:      usage.TotalTokens,
	}
}

func mapCitations(citations []gemini.Citation) []dto.CitationDTO {
	if len(citations) == 0 {
		return nil
	}
	res := make([]dto.CitationDTO, 0, len(citations))
	for _, c := range citations {
		res = append(res, dto.CitationDTO{
			Index:   c.Index,
			Source:  c.Source,
			Title:   c.Title,
			Excerpt: c.Excerpt,
		})
	}
	return res
}

// buildContents maps UI-level turns to protocol contents. An explicit role
// wins; otherwise sender "user" maps to the user role and anything else to
// the model role.
func buildContents(history []dto.ChatTurnDTO) []gemini.Content {
	contents := make([]gemini.Content, 0, len(history)+1)
	for _, turn := range history {
		role := turn.Role
		if role == "" {
			if turn.Sender == "user" {
				role = gemini.RoleUser
			} else {
				role = gemini.RoleModel
			}
		}
		contents = append(contents, gemini.NewTextContent(role, turn.Text))
	}
	return contents
}
