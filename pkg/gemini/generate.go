package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"ai-filesearch-be/internal/pkg/apperror"
)

const (
	RoleUser  = "user"
	RoleModel = "model"
)

type Part struct {
	Text string `json:"text"`
}

type Content struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

func NewTextContent(role, text string) Content {
	return Content{Role: role, Parts: []Part{{Text: text}}}
}

type fileSearchTool struct {
	FileSearchStoreNames []string `json:"fileSearchStoreNames"`
}

type tool struct {
	FileSearch *fileSearchTool `json:"fileSearch,omitempty"`
}

type generationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens"`
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"topP"`
	TopK            int     `json:"topK"`
}

type generateRequest struct {
	Contents         []Content         `json:"contents"`
	Tools            []tool            `json:"tools,omitempty"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

// usageFields absorbs every spelling the provider has used for token
// counters across versions. Missing fields decode to zero, which is exactly
// the defensive default the accounting wants.
type usageFields struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	PromptTokens         int `json:"promptTokens"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	CandidatesTokens     int `json:"candidatesTokens"`
	TotalTokenCount      int `json:"totalTokenCount"`
	TotalTokens          int `json:"totalTokens"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []Part `json:"parts"`
		} `json:"content"`
		GroundingMetadata *GroundingMetadata `json:"groundingMetadata"`
	} `json:"candidates"`
	Usage         *usageFields `json:"usage"`
	UsageMetadata *usageFields `json:"usageMetadata"`
}

// GroundingMetadata is the structured evidence returned alongside a
// generated answer when the file search tool grounded it.
type GroundingMetadata struct {
	SupportAttributions []SupportAttribution `json:"supportAttributions"`
}

type SupportAttribution struct {
	Source *AttributionSource `json:"source"`
	Chunk  *AttributionChunk  `json:"chunk"`
}

type AttributionSource struct {
	URI     string `json:"uri"`
	FileURI string `json:"fileUri"`
	Title   string `json:"title"`
}

type AttributionChunk struct {
	ChunkText string `json:"chunkText"`
}

// Citation is one source passage that informed the answer, shaped for the
// client UI. Index is 1-based in attribution order.
type Citation struct {
	Index   int    `json:"index"`
	Source  string `json:"source"`
	Title   string `json:"title"`
	Excerpt string `json:"excerpt,omitempty"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CandidatesTokens int `json:"candidates_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// GenerateResult is the extracted answer. Citations may be empty; absence
// of grounding is not an error.
type GenerateResult struct {
	Text      string
	Usage     Usage
	Citations []Citation
	Grounding *GroundingMetadata
}

// GenerateContent invokes the completion endpoint. When storeNames is
// non-empty the file search retrieval tool is enabled and scoped to them.
func (c *Client) GenerateContent(ctx context.Context, contents []Content, storeNames []string) (*GenerateResult, error) {
	if err := c.requireKey(); err != nil {
		return nil, err
	}

	payload := generateRequest{
		Contents: contents,
		GenerationConfig: &generationConfig{
			MaxOutputTokens: 8192,
			Temperature:     0.7,
			TopP:            0.8,
			TopK:            40,
		},
	}
	if len(storeNames) > 0 {
		payload.Tools = []tool{{FileSearch: &fileSearchTool{FileSearchStoreNames: storeNames}}}
	}

	payloadJson, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/models/"+c.model+":generateContent", bytes.NewBuffer(payloadJson))
	if err != nil {
		return nil, err
	}
	c.setAuthHeaders(req)

	var res generateResponse
	if err := c.doJSON(req, &res); err != nil {
		return nil, err
	}
	if len(res.Candidates) == 0 {
		return nil, &apperror.RemoteServiceError{
			StatusCode: http.StatusOK,
			Message:    "no candidates in completion response",
		}
	}

	candidate := res.Candidates[0]
	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		sb.WriteString(part.Text)
	}

	result := &GenerateResult{
		Text:      sb.String(),
		Usage:     extractUsage(res.Usage, res.UsageMetadata),
		Citations: ExtractCitations(candidate.GroundingMetadata),
		Grounding: candidate.GroundingMetadata,
	}
	return result, nil
}

// extractUsage probes both usage envelopes and both field spellings,
// preferring the first non-zero value. Every missing counter stays zero.
func extractUsage(usage, usageMetadata *usageFields) Usage {
	fields := usage
	if fields == nil {
		fields = usageMetadata
	}
	if fields == nil {
		return Usage{}
	}
	return Usage{
		PromptTokens:     firstNonZero(fields.PromptTokenCount, fields.PromptTokens),
		CandidatesTokens: firstNonZero(fields.CandidatesTokenCount, fields.CandidatesTokens),
		TotalTokens:      firstNonZero(fields.TotalTokenCount, fields.TotalTokens),
	}
}

func firstNonZero(values ...int) int {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}

// ExtractCitations flattens grounding attributions into UI citations.
// Entries without a source are skipped; Index follows attribution order,
// 1-based. A nil metadata yields no citations, which is not an error.
func ExtractCitations(metadata *GroundingMetadata) []Citation {
	if metadata == nil {
		return nil
	}

	var citations []Citation
	for i, attribution := range metadata.SupportAttributions {
		if attribution.Source == nil {
			continue
		}
		source := attribution.Source.URI
		if source == "" {
			source = attribution.Source.FileURI
		}
		if source == "" {
			source = "Unknown source"
		}
		title := attribution.Source.Title
		if title == "" {
			title = "Document"
		}
		citation := Citation{
			Index:  i + 1,
			Source: source,
			Title:  title,
		}
		if attribution.Chunk != nil {
			citation.Excerpt = attribution.Chunk.ChunkText
		}
		citations = append(citations, citation)
	}
	return citations
}
