package assistant

import "chatbot-backend/internal/models"

// DefaultSystemPrompt is sent as the system instruction when enabled.
const DefaultSystemPrompt = `You are a helpful AI assistant.
Answer clearly and concisely.
When your answer includes code, put it in a single fenced block tagged with its language, for example:
` + "```python\nprint(\"hello\")\n```"

// Format converts stored turns plus the new user message into a request for
// family. Turns with empty content or a role other than user/assistant are
// skipped. The new message is always last.
func Format(history []models.Turn, newMessage string, family Family) Request {
	msgs := make([]Message, 0, len(history)+1)
	for _, t := range history {
		if t.Content == "" {
			continue
		}
		role := roleFor(t.Role, family)
		if role == "" {
			continue
		}
		msgs = append(msgs, Message{Role: role, Text: turnText(t)})
	}
	msgs = append(msgs, Message{Role: roleFor(models.RoleUser, family), Text: newMessage})
	return Request{Messages: msgs}
}

func roleFor(role string, family Family) string {
	switch role {
	case models.RoleUser:
		return "user"
	case models.RoleAssistant:
		if family == FamilyGemini {
			return "model"
		}
		return "assistant"
	}
	return ""
}

// turnText puts an assistant's extracted code back inside a fence so the
// model sees what it answered.
func turnText(t models.Turn) string {
	if t.Role != models.RoleAssistant || t.Code == nil || *t.Code == "" {
		return t.Content
	}
	return t.Content + "\n\n```\n" + *t.Code + "\n```"
}
