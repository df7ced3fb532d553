package merger

import (
	"sort"
	"strings"
)

type emojiRule struct {
	emoji string
	match func(message string) bool
}

func containsAll(subs ...string) func(string) bool {
	return func(message string) bool {
		for _, sub := range subs {
			if !strings.Contains(message, sub) {
				return false
			}
		}
		return true
	}
}

func containsAny(subs ...string) func(string) bool {
	return func(message string) bool {
		for _, sub := range subs {
			if strings.Contains(message, sub) {
				return true
			}
		}
		return false
	}
}

// Order matters: combined-keyword rules come before the single-keyword rules they overlap.
var emojiRules = []emojiRule{
	{emoji: "💰🏆", match: containsAll("Auction ended", "sold to")},
	{emoji: "⌛", match: containsAll("Auction ended", "no bids")},
	{emoji: "🏁", match: containsAll("Auction ended")},
	{emoji: "💰🛍️", match: func(m string) bool {
		return strings.Contains(m, "New sale:") && !strings.Contains(m, "Auction ended:")
	}},
	{emoji: "⚠️", match: containsAll("outbid")},
	{emoji: "💰", match: containsAll("New bid")},
	{emoji: "🎉", match: containsAll("subscribed to you")},
	{emoji: "💬", match: containsAll("New message")},
	{emoji: "📦", match: containsAll("Order shipped")},
	{emoji: "✅", match: containsAll("Order delivered")},
	{emoji: "↩️", match: func(m string) bool { return strings.Contains(strings.ToLower(m), "refund") }},
	{emoji: "💳", match: containsAll("Payment received")},
	{emoji: "🚫", match: containsAny("suspended", "banned")},
	{emoji: "👍", match: containsAll("Listing approved")},
	{emoji: "👎", match: containsAll("Listing rejected")},
}

// recognizedEmoji is every rule emoji, longest first so that "💰🏆" is matched before "💰".
var recognizedEmoji = func() []string {
	seen := make(map[string]bool, len(emojiRules))
	var out []string
	for _, rule := range emojiRules {
		if !seen[rule.emoji] {
			seen[rule.emoji] = true
			out = append(out, rule.emoji)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return len(out[i]) > len(out[j]) })
	return out
}()

// HasEmojiPrefix reports whether message already starts with a recognized emoji.
func HasEmojiPrefix(message string) bool {
	for _, emoji := range recognizedEmoji {
		if strings.HasPrefix(message, emoji) {
			return true
		}
	}
	return false
}

// Annotate prefixes message with the emoji of the first matching rule. Messages that
// already start with a recognized emoji, or match no rule, are returned unchanged.
func Annotate(message string) string {
	if HasEmojiPrefix(message) {
		return message
	}
	for _, rule := range emojiRules {
		if rule.match(message) {
			return rule.emoji + " " + message
		}
	}
	return message
}

// StripEmoji removes one leading recognized emoji and the space after it.
func StripEmoji(message string) string {
	for _, emoji := range recognizedEmoji {
		if rest, ok := strings.CutPrefix(message, emoji+" "); ok {
			return rest
		}
	}
	return message
}
