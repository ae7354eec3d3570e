package chat

import (
	"fmt"
	"regexp"
	"strings"
)

// TaskKind selects which instruction template frames the model call.
type TaskKind string

const (
	TaskBusinessAnalyst  TaskKind = "Business Analyst"
	TaskGeneralAssistant TaskKind = "General Assistant"
)

var businessAnalystPatterns = []*regexp.Regexp{
	regexp.MustCompile(`user story`),
	regexp.MustCompile(`acceptance criteria`),
	regexp.MustCompile(`business requirement`),
	regexp.MustCompile(`convert.*requirement`),
	regexp.MustCompile(`create.*user story`),
}

// ClassifyTask maps free text to a task kind. Total and deterministic:
// anything that does not hit a business-analyst pattern is general
// assistance.
func ClassifyTask(text string) TaskKind {
	text = strings.ToLower(text)
	for _, p := range businessAnalystPatterns {
		if p.MatchString(text) {
			return TaskBusinessAnalyst
		}
	}
	return TaskGeneralAssistant
}

// ParseTaskKind validates a caller-supplied task label.
func ParseTaskKind(s string) (TaskKind, bool) {
	switch TaskKind(s) {
	case TaskBusinessAnalyst, TaskGeneralAssistant:
		return TaskKind(s), true
	}
	return "", false
}

const businessAnalystTemplate = `You are a Business Analyst. Based on the following requirement, create user stories and acceptance criteria.

Requirement:
%s

Please provide:
1. User Stories in the format:
   As a [user type]
   I want [feature/functionality]
   So that [benefit/value]

2. Acceptance Criteria in the format:
   Given [precondition]
   When [action]
   Then [expected result]`

const generalAssistantTemplate = `You are a helpful AI assistant. Please help with the following request:

Request: %s

Please provide a clear, detailed, and helpful response.`

// historyContextWindow is how many trailing turns are rendered into the prompt.
const historyContextWindow = 5

// BuildPrompt interpolates the combined input into the task's template and
// appends up to the last few history turns as "Role: content" lines.
func BuildPrompt(task TaskKind, input string, history []Message) string {
	var prompt string
	switch task {
	case TaskBusinessAnalyst:
		prompt = fmt.Sprintf(businessAnalystTemplate, input)
	default:
		prompt = fmt.Sprintf(generalAssistantTemplate, input)
	}

	if len(history) == 0 {
		return prompt
	}

	start := 0
	if len(history) > historyContextWindow {
		start = len(history) - historyContextWindow
	}

	var sb strings.Builder
	sb.WriteString(prompt)
	sb.WriteString("\n\nPrevious conversation context:\n")
	for _, m := range history[start:] {
		sb.WriteString(titleRole(m.Role))
		sb.WriteString(": ")
		sb.WriteString(m.Content)
		sb.WriteString("\n")
	}
	return sb.String()
}

func titleRole(role string) string {
	if role == "" {
		return role
	}
	return strings.ToUpper(role[:1]) + role[1:]
}
