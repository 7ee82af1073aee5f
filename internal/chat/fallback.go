package chat

import (
	"regexp"
	"strings"
)

const (
	greetingReply = "Hello! 👋 I'm the campus events assistant. Ask me things like " +
		"\"events today\", \"technical workshops this week\" or \"upcoming events tag:ai\"."

	helpReply = "Here is what I can do:\n" +
		"• Find events by date: \"events today\", \"events tomorrow\", \"events next week\", \"events on 2025-03-14\"\n" +
		"• Filter by category: \"technical events\", \"cultural events\", \"sport events\", \"academic events\", \"career events\"\n" +
		"• Filter by status: \"upcoming events\", \"ongoing events\", \"past events\"\n" +
		"• Filter by place or tag: \"events in Hall A\", \"events tag:ai\"\n" +
		"You can combine them, e.g. \"upcoming technical events this week in Hall A\"."

	thanksReply = "You're welcome! Let me know if you want to find more events. 😊"

	goodbyeReply = "Goodbye! Hope to see you at one of our events soon. 👋"

	defaultReply = "I'm not sure I understood that. I can help you find campus events. Try:\n" +
		"• By date: \"events today\", \"events this week\", \"events on 2025-03-14\"\n" +
		"• By category: \"technical events\", \"career events\"\n" +
		"• By time period: \"upcoming events\", \"past events\"\n" +
		"Type \"help\" for more examples."
)

type cannedReply struct {
	pattern *regexp.Regexp
	reply   string
}

// wordPattern matches any of words as whole words or phrases.
func wordPattern(words ...string) *regexp.Regexp {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`(?:^|[^\p{L}])(?:` + strings.Join(quoted, "|") + `)(?:$|[^\p{L}])`)
}

// Checked in order; the first hit wins.
var cannedReplies = []cannedReply{
	{wordPattern("hi", "hello", "hey", "good morning", "good afternoon", "good evening", "greetings", "xin chào", "chào"), greetingReply},
	{wordPattern("help", "what can you do", "guide", "how to use", "hướng dẫn", "giúp"), helpReply},
	{wordPattern("thanks", "thank you", "thank", "thx", "cảm ơn", "cám ơn"), thanksReply},
	{wordPattern("bye", "goodbye", "see you", "see ya", "tạm biệt"), goodbyeReply},
}

// SmartResponse returns the canned reply for a lowercased chat message. It
// is deterministic and stateless.
func SmartResponse(message string) string {
	for _, c := range cannedReplies {
		if c.pattern.MatchString(message) {
			return c.reply
		}
	}
	return defaultReply
}
