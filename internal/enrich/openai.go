package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"text/template"

	openai "github.com/sashabaranov/go-openai"

	"jobscout/internal/model"
)

// OpenAI asks a chat-completion model for a JSON relevance assessment.
type OpenAI struct {
	client *openai.Client
	model  string
	tmpl   *template.Template
}

// NewOpenAI creates an OpenAI enricher. An empty baseURL targets the public
// API; a nil tmpl uses RelevanceJSONTemplate.
func NewOpenAI(apiKey, baseURL, modelName string, tmpl *template.Template) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if tmpl == nil {
		tmpl = RelevanceJSONTemplate
	}
	return &OpenAI{
		client: openai.NewClientWithConfig(cfg),
		model:  modelName,
		tmpl:   tmpl,
	}
}

// rawAssessment is the JSON shape the prompt asks the model for.
type rawAssessment struct {
	Relevant bool   `json:"relevant"`
	Summary  string `json:"summary"`
}

// Enrich renders the prompt and parses the model's JSON answer.
func (o *OpenAI) Enrich(ctx context.Context, p model.Posting) (*model.Enrichment, error) {
	prompt, err := renderPrompt(o.tmpl, p)
	if err != nil {
		return nil, err
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: "You screen job postings. Answer only with the requested JSON object."},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens: 256,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("model returned no choices")
	}

	var ra rawAssessment
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &ra); err != nil {
		return nil, fmt.Errorf("parse assessment: %w", err)
	}

	return &model.Enrichment{Relevant: ra.Relevant, Summary: ra.Summary, Model: o.model}, nil
}
