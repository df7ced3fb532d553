package merger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnnotate(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{"Auction ended: \"Vase\" sold to bob for $30", "💰🏆 Auction ended: \"Vase\" sold to bob for $30"},
		{"Auction ended: \"Vase\" received no bids", "⌛ Auction ended: \"Vase\" received no bids"},
		{"Auction ended early by seller", "🏁 Auction ended early by seller"},
		{"New sale: bob bought \"Lamp\" for $20", "💰🛍️ New sale: bob bought \"Lamp\" for $20"},
		{"Auction ended: New sale: recorded", "🏁 Auction ended: New sale: recorded"},
		{"You were outbid on \"Lamp\": new high bid $25", "⚠️ You were outbid on \"Lamp\": new high bid $25"},
		{"New bid of $10 placed", "💰 New bid of $10 placed"},
		{"bob subscribed to you", "🎉 bob subscribed to you"},
		{"New message from carol", "💬 New message from carol"},
		{"Order shipped: #42", "📦 Order shipped: #42"},
		{"Order delivered: #42", "✅ Order delivered: #42"},
		{"Refund issued for order #42", "↩️ Refund issued for order #42"},
		{"Payment received: $40", "💳 Payment received: $40"},
		{"Your account has been suspended: spam", "🚫 Your account has been suspended: spam"},
		{"Listing approved: Lamp", "👍 Listing approved: Lamp"},
		{"Listing rejected: Lamp", "👎 Listing rejected: Lamp"},
		{"Welcome to the marketplace", "Welcome to the marketplace"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			assert.Equal(t, tt.want, Annotate(tt.message))
		})
	}
}

func TestAnnotate_Idempotent(t *testing.T) {
	messages := []string{
		"New bid of $10 placed",
		"Auction ended: x sold to y",
		"New sale: z",
		"nothing to see",
		"💰 already prefixed New sale: z",
		"🎉",
	}

	for _, message := range messages {
		once := Annotate(message)
		assert.Equal(t, once, Annotate(once), message)
	}
}

func TestAnnotate_AlreadyPrefixedIsUntouched(t *testing.T) {
	// a prefix from a different rule still counts as annotated
	assert.Equal(t, "🎉 New bid of $10 placed", Annotate("🎉 New bid of $10 placed"))
}

func TestStripEmoji(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{"💰🏆 Auction ended: sold to bob", "Auction ended: sold to bob"},
		{"💰🛍️ New sale: x", "New sale: x"},
		{"💰 New bid", "New bid"},
		{"⚠️ You were outbid", "You were outbid"},
		{"💰New bid", "💰New bid"},
		{"no emoji", "no emoji"},
		{"🎉 🎉 twice", "🎉 twice"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			assert.Equal(t, tt.want, StripEmoji(tt.message))
		})
	}
}

func TestStripEmoji_InvertsAnnotate(t *testing.T) {
	for _, message := range []string{"New bid of $1", "Auction ended: a sold to b", "plain"} {
		assert.Equal(t, message, StripEmoji(Annotate(message)))
	}
}

func TestRecognizedEmoji_LongestFirst(t *testing.T) {
	for i := 1; i < len(recognizedEmoji); i++ {
		assert.GreaterOrEqual(t, len(recognizedEmoji[i-1]), len(recognizedEmoji[i]))
	}
	assert.Len(t, recognizedEmoji, len(emojiRules))
}
