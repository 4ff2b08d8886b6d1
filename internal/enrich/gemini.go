package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"text/template"

	"jobscout/internal/model"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"

// Gemini calls the Google Generative Language generateContent endpoint and
// turns its YES/NO answer into an assessment.
type Gemini struct {
	baseURL    string
	apiKey     string
	model      string
	tmpl       *template.Template
	httpClient *http.Client
}

// NewGemini creates a Gemini enricher. An empty baseURL targets the public
// API; a nil tmpl uses RelevanceTemplate.
func NewGemini(apiKey, baseURL, modelName string, tmpl *template.Template, httpClient *http.Client) *Gemini {
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}
	if tmpl == nil {
		tmpl = RelevanceTemplate
	}
	return &Gemini{
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      modelName,
		tmpl:       tmpl,
		httpClient: httpClient,
	}
}

// geminiRequest mirrors the generateContent request body.
type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

// geminiResponse mirrors the relevant fields of the generateContent response.
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// Enrich renders the prompt, asks the model, and parses the verdict.
func (g *Gemini) Enrich(ctx context.Context, p model.Posting) (*model.Enrichment, error) {
	prompt, err := renderPrompt(g.tmpl, p)
	if err != nil {
		return nil, err
	}

	raw, err := g.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	relevant, summary, err := parseVerdict(raw)
	if err != nil {
		return nil, err
	}

	return &model.Enrichment{Relevant: relevant, Summary: summary, Model: g.model}, nil
}

func (g *Gemini) complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal gemini request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		g.baseURL, g.model, url.QueryEscape(g.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read gemini response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini returned HTTP %d: %s", resp.StatusCode, string(respBytes))
	}

	var gr geminiResponse
	if err := json.Unmarshal(respBytes, &gr); err != nil {
		return "", fmt.Errorf("parse gemini response: %w", err)
	}

	if gr.Error != nil {
		return "", fmt.Errorf("gemini error (%s): %s", gr.Error.Status, gr.Error.Message)
	}

	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	var sb strings.Builder
	for _, part := range gr.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}

// parseVerdict reads the YES/NO on the first line of a model answer; the
// remaining lines become the summary.
func parseVerdict(raw string) (relevant bool, summary string, err error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return false, "", fmt.Errorf("empty model response")
	}

	line, rest, _ := strings.Cut(text, "\n")
	fields := strings.Fields(line)
	verdict := strings.ToUpper(strings.Trim(fields[0], ".,!:;"))

	switch verdict {
	case "YES":
		return true, strings.TrimSpace(rest), nil
	case "NO":
		return false, strings.TrimSpace(rest), nil
	}
	return false, "", fmt.Errorf("unexpected verdict %q", line)
}
