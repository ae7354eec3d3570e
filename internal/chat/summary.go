package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aironrush/assistant/internal/ai"
)

// SummaryFields is the structured result of a document analysis call.
type SummaryFields struct {
	UserName      string `json:"user_name"`
	InputSummary  string `json:"input_summary"`
	ClientName    string `json:"client_name"`
	ClientRegion  string `json:"client_region"`
	Vertical      string `json:"vertical"`
	Feedback      string `json:"feedback"`
	ProjectStatus string `json:"project_status"`
}

// SummaryResult tags whether the model output parsed cleanly or the
// defaults were substituted, so parse failures can be logged apart from
// upstream errors.
type SummaryResult struct {
	Fields   SummaryFields
	Fallback bool
	Reason   string
}

func fallbackSummary(inputSummary string) SummaryFields {
	return SummaryFields{
		UserName:      "Unknown",
		InputSummary:  inputSummary,
		ClientName:    "Unknown",
		ClientRegion:  "Unknown",
		Vertical:      "Unknown",
		Feedback:      "Neutral",
		ProjectStatus: "Unknown",
	}
}

const summaryPromptTemplate = `Analyze the following document and extract key information. Return ONLY a JSON object in this exact format:

{
    "user_name": "extracted user name or 'Unknown'",
    "input_summary": "comprehensive summary of the document content",
    "client_name": "extracted client name or 'Unknown'",
    "client_region": "extracted region or 'Unknown'",
    "vertical": "extracted business vertical or 'Unknown'",
    "feedback": "Positive/Negative/Neutral based on content tone",
    "project_status": "on-going/completed/pending based on content"
}

Document content:
%s

Important: Return ONLY the JSON object, no additional text or explanations.`

const summarySystemMessage = "You are a document analysis expert. Extract key information and return it in the exact JSON format specified."

// stripCodeFence removes a leading/trailing markdown fence the model may
// wrap its JSON in.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = strings.ReplaceAll(s, "```json", "")
		s = strings.ReplaceAll(s, "```", "")
	} else if strings.HasPrefix(s, "```") {
		s = strings.ReplaceAll(s, "```", "")
	}
	return strings.TrimSpace(s)
}

// ParseSummaryOutput parses raw model output into summary fields. It never
// fails: malformed output yields the default structure tagged as a
// fallback, and individually missing fields default to "Unknown".
func ParseSummaryOutput(raw string) SummaryResult {
	cleaned := stripCodeFence(raw)

	var fields SummaryFields
	if err := json.Unmarshal([]byte(cleaned), &fields); err != nil {
		return SummaryResult{
			Fields:   fallbackSummary("Failed to parse document content"),
			Fallback: true,
			Reason:   err.Error(),
		}
	}

	for _, f := range []*string{
		&fields.UserName, &fields.InputSummary, &fields.ClientName,
		&fields.ClientRegion, &fields.Vertical, &fields.Feedback,
		&fields.ProjectStatus,
	} {
		if *f == "" {
			*f = "Unknown"
		}
	}
	return SummaryResult{Fields: fields}
}

// generateFileSummary runs the document-analysis model call. Upstream
// failures degrade to the default structure carrying the error text, so a
// summary request never fails the surrounding chat request.
func (s *Service) generateFileSummary(ctx context.Context, provider ai.Provider, model, documentText string) SummaryResult {
	prompt := fmt.Sprintf(summaryPromptTemplate, documentText)

	raw, err := provider.Chat(ctx, []ai.Message{
		{Role: "system", Content: summarySystemMessage},
		{Role: "user", Content: prompt},
	}, ai.Options{Model: model, Temperature: 0.3, MaxTokens: 1000})
	if err != nil {
		return SummaryResult{
			Fields:   fallbackSummary(fmt.Sprintf("Error processing document: %v", err)),
			Fallback: true,
			Reason:   err.Error(),
		}
	}

	return ParseSummaryOutput(raw)
}
