package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"ai-filesearch-be/internal/pkg/apperror"
)

// MaxUploadBytes is the provider's per-file ceiling. Checked client-side
// before any network call.
const MaxUploadBytes = 100 * 1024 * 1024

const DefaultFileDisplayName = "Uploaded File"

// UploadFile pushes a document into a store via the provider's resumable
// upload protocol and returns the initial, usually still-pending, operation
// descriptor. It does not poll.
//
// The endpoint only supports the two-phase dance over plain HTTP:
//  1. POST an initiation request declaring length and MIME type; the server
//     answers with a dedicated transfer URL in a response header.
//  2. PUT the raw bytes to that URL at offset zero with a finalize command.
//     The PUT body is the operation descriptor.
func (c *Client) UploadFile(ctx context.Context, data []byte, storeName, displayName, mimeType string) (*Operation, error) {
	if err := c.requireKey(); err != nil {
		return nil, err
	}
	if len(data) > MaxUploadBytes {
		return nil, apperror.NewValidation("file size exceeds 100MB limit")
	}
	if storeName == "" {
		return nil, apperror.NewValidation("store name is required")
	}
	if displayName == "" {
		displayName = DefaultFileDisplayName
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	uploadURL, err := c.initiateUpload(ctx, len(data), storeName, displayName, mimeType)
	if err != nil {
		return nil, err
	}

	return c.transferBytes(ctx, uploadURL, data)
}

func (c *Client) initiateUpload(ctx context.Context, size int, storeName, displayName, mimeType string) (string, error) {
	payload, err := json.Marshal(map[string]string{"displayName": displayName})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.uploadBaseURL+"/"+storeName+":uploadToFileSearchStore", bytes.NewBuffer(payload))
	if err != nil {
		return "", err
	}
	c.setAuthHeaders(req)
	req.Header.Set("X-Goog-Upload-Protocol", "resumable")
	req.Header.Set("X-Goog-Upload-Command", "start")
	req.Header.Set("X-Goog-Upload-Header-Content-Length", strconv.Itoa(size))
	req.Header.Set("X-Goog-Upload-Header-Content-Type", mimeType)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return "", &apperror.RemoteServiceError{StatusCode: 0, Message: err.Error()}
	}
	defer res.Body.Close()

	body, _ := io.ReadAll(res.Body)
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return "", remoteError(res.StatusCode, body)
	}

	uploadURL, ok := findUploadURL(res.Header)
	if !ok {
		// Fatal: without the transfer URL the dance cannot continue. Attach
		// the full header set, it is the only diagnostic there is.
		c.log.Error("Gemini", "Upload initiation returned no upload URL", map[string]interface{}{
			"store":   storeName,
			"headers": headerDump(res.Header),
		})
		return "", &apperror.RemoteServiceError{
			StatusCode: res.StatusCode,
			Message:    "failed to get upload URL from initiation response",
			Headers:    res.Header.Clone(),
		}
	}
	return uploadURL, nil
}

// findUploadURL locates the transfer URL in the initiation response. The
// header name is not guaranteed, so the lookup policy is, in order:
//  1. the documented X-Goog-Upload-URL header,
//  2. any header whose name contains "upload-url" (case-insensitive),
//  3. a plain Location header.
func findUploadURL(headers http.Header) (string, bool) {
	if v := headers.Get("X-Goog-Upload-URL"); v != "" {
		return v, true
	}
	for key, values := range headers {
		if strings.Contains(strings.ToLower(key), "upload-url") && len(values) > 0 {
			return values[0], true
		}
	}
	if v := headers.Get("Location"); v != "" {
		return v, true
	}
	return "", false
}

func headerDump(headers http.Header) map[string]string {
	dump := make(map[string]string, len(headers))
	for key, values := range headers {
		dump[key] = strings.Join(values, ", ")
	}
	return dump
}

func (c *Client) transferBytes(ctx context.Context, uploadURL string, data []byte) (*Operation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Goog-Upload-Offset", "0")
	req.Header.Set("X-Goog-Upload-Command", "upload, finalize")
	req.ContentLength = int64(len(data))

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &apperror.RemoteServiceError{StatusCode: 0, Message: err.Error()}
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &apperror.RemoteServiceError{StatusCode: res.StatusCode, Message: err.Error()}
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, remoteError(res.StatusCode, body)
	}

	var op Operation
	if err := json.Unmarshal(body, &op); err != nil {
		return nil, &apperror.RemoteServiceError{
			StatusCode: res.StatusCode,
			Message:    "unexpected response format from upload endpoint",
		}
	}

	c.log.Info("Gemini", "Upload finalized", map[string]interface{}{
		"operation": op.Name,
		"done":      op.Done,
	})
	return &op, nil
}
