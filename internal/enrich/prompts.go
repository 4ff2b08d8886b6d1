package enrich

import (
	_ "embed"
	"text/template"
)

//go:embed prompts/relevance.md
var relevancePromptRaw string

//go:embed prompts/relevance_json.md
var relevanceJSONPromptRaw string

// RelevanceTemplate asks for a YES/NO verdict line; used by the Gemini enricher.
// Parsed once at package init; reused on every Enrich call.
var RelevanceTemplate = template.Must(template.New("relevance").Parse(relevancePromptRaw))

// RelevanceJSONTemplate asks for a JSON verdict object; used by the OpenAI enricher.
var RelevanceJSONTemplate = template.Must(template.New("relevance_json").Parse(relevanceJSONPromptRaw))
