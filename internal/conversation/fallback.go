package conversation

import (
	"fmt"
	"strings"
)

// GenericReply is returned when no static phrase matches.
const GenericReply = "I can help with music, files, email, calendar, weather, news, system status, launching apps and conversation. " +
	"Add an AI provider key to your .env file for full conversations, or type 'help' to see what I can do!"

type phrase struct {
	key   string
	reply string
}

// staticPhrases returns the ordered phrase table. First substring match wins.
func staticPhrases(userName string) []phrase {
	return []phrase{
		{"hello", fmt.Sprintf("Hello %s! I'm Specter, your AI assistant. How can I help you today?", userName)},
		{"how are you", "I'm doing well, thank you for asking! How are you?"},
		{"what can you do", "I can help with music, files, news, weather, launching apps, and having conversations!"},
		{"thank you", "You're welcome! I'm always happy to help."},
		{"goodbye", "Goodbye! Have a great day!"},
		{"help", "I can assist with various tasks. Try asking me to play music, find files, get news, or just chat!"},
	}
}

// StaticReply answers from the phrase table without any remote service.
func StaticReply(message, userName string) string {
	lower := strings.ToLower(message)
	for _, p := range staticPhrases(userName) {
		if strings.Contains(lower, p.key) {
			return p.reply
		}
	}
	return GenericReply
}
