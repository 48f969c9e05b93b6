package gemini

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"ai-filesearch-be/internal/pkg/apperror"
	"ai-filesearch-be/internal/pkg/logger"
)

const (
	DefaultBaseURL       = "https://generativelanguage.googleapis.com/v1beta"
	DefaultUploadBaseURL = "https://generativelanguage.googleapis.com/upload/v1beta"
	DefaultModel         = "gemini-2.5-flash"
)

// Client is a thin REST client for the generative language API: file search
// stores, resumable uploads, long-running operations and generateContent.
// All state is immutable after construction; one Client is shared by every
// request handler.
type Client struct {
	apiKey        string
	baseURL       string
	uploadBaseURL string
	model         string
	httpClient    *http.Client
	log           logger.ILogger
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

func WithUploadBaseURL(uploadBaseURL string) Option {
	return func(c *Client) { c.uploadBaseURL = strings.TrimRight(uploadBaseURL, "/") }
}

func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

func NewClient(apiKey string, log logger.ILogger, opts ...Option) *Client {
	c := &Client{
		apiKey:        apiKey,
		baseURL:       DefaultBaseURL,
		uploadBaseURL: DefaultUploadBaseURL,
		model:         DefaultModel,
		httpClient:    &http.Client{},
		log:           log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HasAPIKey reports whether a credential was configured. A missing key
// degrades the AI surfaces to ConfigurationError responses instead of
// crashing at startup.
func (c *Client) HasAPIKey() bool {
	return c.apiKey != ""
}

func (c *Client) Model() string {
	return c.model
}

func (c *Client) requireKey() error {
	if c.apiKey == "" {
		return &apperror.ConfigurationError{Missing: "GEMINI_API_KEY"}
	}
	return nil
}

func (c *Client) setAuthHeaders(req *http.Request) {
	req.Header.Set("x-goog-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
}

type providerErrorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// remoteError builds a RemoteServiceError from a non-2xx response, pulling
// the provider's message out of the standard {"error": {...}} envelope when
// the body parses, falling back to the raw body text.
func remoteError(statusCode int, body []byte) *apperror.RemoteServiceError {
	message := strings.TrimSpace(string(body))
	var parsed providerErrorBody
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		message = parsed.Error.Message
	}
	return &apperror.RemoteServiceError{StatusCode: statusCode, Message: message}
}

func asRemote(err error, target **apperror.RemoteServiceError) bool {
	return errors.As(err, target)
}

// doJSON executes the request and decodes a 2xx JSON body into out.
func (c *Client) doJSON(req *http.Request, out interface{}) error {
	res, err := c.httpClient.Do(req)
	if err != nil {
		return &apperror.RemoteServiceError{StatusCode: 0, Message: err.Error()}
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return &apperror.RemoteServiceError{StatusCode: res.StatusCode, Message: err.Error()}
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return remoteError(res.StatusCode, body)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &apperror.RemoteServiceError{
			StatusCode: res.StatusCode,
			Message:    "malformed response body: " + err.Error(),
		}
	}
	return nil
}
