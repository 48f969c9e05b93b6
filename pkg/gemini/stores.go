package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"ai-filesearch-be/internal/pkg/apperror"
)

const DefaultStoreDisplayName = "My File Search Store"

// Store is a named remote document collection usable as a retrieval corpus.
// The remote service owns it; what the client holds is a possibly-stale copy.
type Store struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Files       []File `json:"files,omitempty"`
}

// File is one ingested document. Created only by a successful upload
// operation, never mutated, destroyed only with its store.
type File struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	MimeType    string `json:"mimeType,omitempty"`
}

// CreateStore creates a File Search store with the given display name.
func (c *Client) CreateStore(ctx context.Context, displayName string) (*Store, error) {
	if err := c.requireKey(); err != nil {
		return nil, err
	}
	if displayName == "" {
		displayName = DefaultStoreDisplayName
	}

	payload, err := json.Marshal(map[string]string{"displayName": displayName})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/fileSearchStores", bytes.NewBuffer(payload))
	if err != nil {
		return nil, err
	}
	c.setAuthHeaders(req)

	var store Store
	if err := c.doJSON(req, &store); err != nil {
		return nil, err
	}
	if store.DisplayName == "" {
		store.DisplayName = displayName
	}

	c.log.Info("Gemini", "File Search store created", map[string]interface{}{
		"name":         store.Name,
		"display_name": store.DisplayName,
	})
	return &store, nil
}

// ListStores returns all stores. An empty corpus yields an empty slice, any
// HTTP failure propagates as RemoteServiceError.
func (c *Client) ListStores(ctx context.Context) ([]Store, error) {
	if err := c.requireKey(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/fileSearchStores", nil)
	if err != nil {
		return nil, err
	}
	c.setAuthHeaders(req)

	var res struct {
		FileSearchStores []Store `json:"fileSearchStores"`
	}
	if err := c.doJSON(req, &res); err != nil {
		return nil, err
	}
	if res.FileSearchStores == nil {
		return []Store{}, nil
	}
	return res.FileSearchStores, nil
}

// GetStoreDetails fetches one store including its file list. The remote
// layer does not guarantee a stable status code for a missing store, so a
// 404 always maps to NotFoundError.
func (c *Client) GetStoreDetails(ctx context.Context, storeName string) (*Store, error) {
	if err := c.requireKey(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/"+storeName, nil)
	if err != nil {
		return nil, err
	}
	c.setAuthHeaders(req)

	var store Store
	if err := c.doJSON(req, &store); err != nil {
		var remoteErr *apperror.RemoteServiceError
		if asRemote(err, &remoteErr) && remoteErr.StatusCode == http.StatusNotFound {
			return nil, &apperror.NotFoundError{Resource: "store " + storeName}
		}
		return nil, err
	}
	if store.Files == nil {
		store.Files = []File{}
	}
	return &store, nil
}

// DeleteStore deletes a store and, server-side, every file in it. The
// remote does not promise idempotency; deleting a missing store fails.
func (c *Client) DeleteStore(ctx context.Context, storeName string) error {
	if err := c.requireKey(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.baseURL+"/"+storeName+"?force=true", nil)
	if err != nil {
		return err
	}
	c.setAuthHeaders(req)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return &apperror.RemoteServiceError{StatusCode: 0, Message: err.Error()}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		body, _ := io.ReadAll(res.Body)
		if res.StatusCode == http.StatusNotFound {
			return &apperror.NotFoundError{Resource: "store " + storeName}
		}
		return remoteError(res.StatusCode, body)
	}

	c.log.Info("Gemini", "File Search store deleted", map[string]interface{}{
		"name": storeName,
	})
	return nil
}
