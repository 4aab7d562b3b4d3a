package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/enrich-cli/pkg/anthropic"
)

// Field describes one property in an extraction schema.
type Field struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// Schema constrains what a structured extraction may return. Keys outside
// Properties are a schema violation.
type Schema struct {
	Name       string           `json:"name"`
	Properties map[string]Field `json:"properties"`
}

// ExtractRequest is one structured extraction call. Temperature defaults to
// 0.1; extraction is always low-temperature.
type ExtractRequest struct {
	System      string
	Prompt      string
	Schema      Schema
	Temperature float64
	MaxTokens   int64
}

// StructuredExtractor turns unstructured evidence into a schema-bound JSON
// object. Implementations must reject fields outside the schema.
type StructuredExtractor interface {
	Extract(ctx context.Context, req ExtractRequest) (json.RawMessage, error)
}

// ExtractInto runs an extraction and unmarshals the result into out.
func ExtractInto(ctx context.Context, e StructuredExtractor, req ExtractRequest, out any) error {
	raw, err := e.Extract(ctx, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return eris.Wrap(err, "llm: decode extraction")
	}
	return nil
}

// anthropicExtractor implements StructuredExtractor over the Anthropic
// messages API.
type anthropicExtractor struct {
	client anthropic.Client
	model  string
}

// NewStructuredExtractor creates the Anthropic-backed extractor.
func NewStructuredExtractor(client anthropic.Client, model string) StructuredExtractor {
	if model == "" {
		model = "claude-haiku-4-5-20251001"
	}
	return &anthropicExtractor{client: client, model: model}
}

func (e *anthropicExtractor) Extract(ctx context.Context, req ExtractRequest) (json.RawMessage, error) {
	if len(req.Schema.Properties) == 0 {
		return nil, eris.New("llm: empty schema")
	}
	temp := req.Temperature
	if temp <= 0 {
		temp = 0.1
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	system := req.System
	if system != "" {
		system += "\n\n"
	}
	system += schemaInstructions(req.Schema)

	// Schema instructions repeat verbatim across calls, so mark the system
	// prompt as cacheable.
	resp, err := e.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       e.model,
		MaxTokens:   maxTokens,
		System:      anthropic.BuildCachedSystemBlocks(system),
		Messages:    []anthropic.Message{{Role: "user", Content: req.Prompt}},
		Temperature: &temp,
	})
	if err != nil {
		return nil, err
	}

	var text strings.Builder
	for _, b := range resp.Content {
		if b.Type == "text" {
			text.WriteString(b.Text)
		}
	}
	resp.Usage.LogCost(e.model, "extract:"+req.Schema.Name)

	obj, err := parseJSONObject(text.String())
	if err != nil {
		return nil, err
	}
	return validateAgainstSchema(obj, req.Schema)
}

// schemaInstructions renders the schema into prompt text. Property order is
// sorted so the prompt is deterministic and cache-friendly.
func schemaInstructions(s Schema) string {
	names := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("Respond with a single JSON object and nothing else. Allowed fields:\n")
	for _, name := range names {
		f := s.Properties[name]
		fmt.Fprintf(&b, "- %q (%s): %s\n", name, f.Type, f.Description)
	}
	b.WriteString("Use null for any field not explicitly supported by the evidence. Never guess. Never add fields outside this list.")
	return b.String()
}

// parseJSONObject extracts the first JSON object from model output,
// tolerating markdown fences and surrounding prose.
func parseJSONObject(text string) (map[string]json.RawMessage, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, eris.Wrap(ErrSchemaViolation, "llm: no JSON object in response")
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text[start:end+1]), &obj); err != nil {
		return nil, eris.Wrap(ErrSchemaViolation, "llm: malformed JSON in response")
	}
	return obj, nil
}

// validateAgainstSchema rejects any key outside the schema and re-marshals
// the surviving object.
func validateAgainstSchema(obj map[string]json.RawMessage, s Schema) (json.RawMessage, error) {
	for key := range obj {
		if _, ok := s.Properties[key]; !ok {
			return nil, eris.Wrapf(ErrSchemaViolation, "llm: field %q not in schema %q", key, s.Name)
		}
	}
	raw, err := json.Marshal(obj)
	if err != nil {
		return nil, eris.Wrap(err, "llm: re-marshal extraction")
	}
	return raw, nil
}
