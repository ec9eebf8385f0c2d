package server

import "github.com/Syauqi-N/Bot-Saham/internal/model"

// Gateways disagree on field names; each logical field has an ordered list
// of accepted aliases.
var (
	textAliases = []string{"body", "text", "message", "content"}
	chatAliases = []string{"chatId", "chat_id", "from"}
	selfAliases = []string{"fromMe", "from_me"}
)

// extractMessage normalizes a webhook payload into an InboundMessage,
// accepting the event either flat or nested under a "payload" wrapper.
func extractMessage(raw map[string]any) model.InboundMessage {
	data := raw
	if nested, ok := raw["payload"].(map[string]any); ok {
		data = nested
	}
	return model.InboundMessage{
		Text:   firstString(data, textAliases),
		ChatID: firstString(data, chatAliases),
		FromMe: firstBool(data, selfAliases),
	}
}

func firstString(m map[string]any, keys []string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func firstBool(m map[string]any, keys []string) bool {
	for _, k := range keys {
		if b, ok := m[k].(bool); ok && b {
			return true
		}
	}
	return false
}
