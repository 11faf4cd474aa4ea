package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ezhulati/texaslobbyorg-sub001/internal/config"
)

const extractToolName = "extract_search_criteria"

var ErrNoCriteria = errors.New("model returned no search criteria")

// Criteria is what the model pulled out of a free-text directory query.
type Criteria struct {
	Keywords     []string `json:"keywords"`
	Cities       []string `json:"cities"`
	SubjectAreas []string `json:"subject_areas"`
}

// Query joins the keywords into a full-text query string.
func (c Criteria) Query() string {
	return strings.Join(c.Keywords, " ")
}

// Extractor turns a natural-language query into structured search criteria
// with a single forced tool call.
type Extractor struct {
	client anthropic.Client
	model  string
}

// NewExtractor builds an extractor. httpClient may be nil.
func NewExtractor(cfg config.AIConfig, httpClient *http.Client, opts ...option.RequestOption) *Extractor {
	base := []option.RequestOption{option.WithAPIKey(cfg.AnthropicAPIKey), option.WithMaxRetries(1)}
	if httpClient != nil {
		base = append(base, option.WithHTTPClient(httpClient))
	}
	if cfg.Timeout > 0 {
		base = append(base, option.WithRequestTimeout(cfg.Timeout))
	}
	return &Extractor{
		client: anthropic.NewClient(append(base, opts...)...),
		model:  cfg.Model,
	}
}

var extractTool = anthropic.ToolParam{
	Name: extractToolName,
	Description: anthropic.String("Extract structured search criteria for a directory of registered Texas lobbyists. " +
		"Cities are Texas city names. Subject areas are policy areas such as Energy, Healthcare or Transportation."),
	InputSchema: anthropic.ToolInputSchemaParam{
		Properties: map[string]any{
			"keywords": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Names, issues or organizations to match in profiles",
			},
			"cities": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
			"subject_areas": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
		},
	},
}

func (e *Extractor) Extract(ctx context.Context, query string) (*Criteria, error) {
	msg, err := e.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(e.model),
		MaxTokens: 512,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(query)),
		},
		Tools: []anthropic.ToolUnionParam{{OfTool: &extractTool}},
		ToolChoice: anthropic.ToolChoiceUnionParam{
			OfTool: &anthropic.ToolChoiceToolParam{Name: extractToolName},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("extract search criteria: %w", err)
	}

	for _, block := range msg.Content {
		tool, ok := block.AsAny().(anthropic.ToolUseBlock)
		if !ok || tool.Name != extractToolName {
			continue
		}
		var c Criteria
		if err := json.Unmarshal(tool.Input, &c); err != nil {
			return nil, fmt.Errorf("decode search criteria: %w", err)
		}
		return &c, nil
	}

	return nil, ErrNoCriteria
}
