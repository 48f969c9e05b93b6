package gemini

import (
	"context"
	"net/http"
	"strings"

	"ai-filesearch-be/internal/pkg/apperror"
)

// Operation is an opaque handle to an asynchronous remote task, here a file
// being indexed. Done is monotonic: once true it never reverts. Response is
// present only for a successful terminal state, Error only for a failed one.
type Operation struct {
	Name     string             `json:"name"`
	Done     bool               `json:"done"`
	Response *OperationResponse `json:"response,omitempty"`
	Error    *OperationError    `json:"error,omitempty"`
}

type OperationResponse struct {
	File *File `json:"file,omitempty"`
}

type OperationError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// NormalizeOperationName converts every operation-handle format the
// provider has been observed to emit into the canonical path used on the
// wire. Accepted external formats:
//
//   - full store path:  fileSearchStores/<store>/upload/operations/<id>
//   - prefixed:         operations/<id>
//   - bare id:          <id>
//
// Bare ids get the operations/ prefix; everything already pathed passes
// through untouched. This is the only place handle formats are branched on.
func NormalizeOperationName(name string) string {
	if strings.HasPrefix(name, "fileSearchStores/") ||
		strings.HasPrefix(name, "operations/") ||
		strings.Contains(name, "/operations/") {
		return name
	}
	return "operations/" + name
}

// GetOperation fetches the current status of a long-running operation.
// A 404 maps to NotFoundError: newly created operations may not be
// queryable yet, so the caller must treat absence as "not ready", not as a
// terminal failure.
func (c *Client) GetOperation(ctx context.Context, operationName string) (*Operation, error) {
	if err := c.requireKey(); err != nil {
		return nil, err
	}

	normalized := NormalizeOperationName(operationName)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/"+normalized, nil)
	if err != nil {
		return nil, err
	}
	c.setAuthHeaders(req)

	var op Operation
	if err := c.doJSON(req, &op); err != nil {
		var remoteErr *apperror.RemoteServiceError
		if asRemote(err, &remoteErr) && remoteErr.StatusCode == http.StatusNotFound {
			return nil, &apperror.NotFoundError{Resource: "operation " + normalized}
		}
		return nil, err
	}
	if op.Name == "" {
		op.Name = normalized
	}
	return &op, nil
}
