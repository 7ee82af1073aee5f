package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSmartResponse(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"hello there", greetingReply},
		{"hi!", greetingReply},
		{"good morning", greetingReply},
		{"xin chào", greetingReply},
		{"help", helpReply},
		{"what can you do?", helpReply},
		{"thanks!", thanksReply},
		{"thank you so much", thanksReply},
		{"cảm ơn", thanksReply},
		{"bye", goodbyeReply},
		{"see you later", goodbyeReply},
		{"this is nothing", defaultReply},
		{"which one", defaultReply},
		{"", defaultReply},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SmartResponse(tt.in), tt.in)
	}
}

func TestSmartResponse_GreetingWinsOverLaterGroups(t *testing.T) {
	assert.Equal(t, greetingReply, SmartResponse("hey, thanks, bye"))
	assert.Equal(t, helpReply, SmartResponse("help me, thanks"))
}

func TestSmartResponse_Deterministic(t *testing.T) {
	first := SmartResponse("hello there")
	second := SmartResponse("hello there")
	assert.Equal(t, []byte(first), []byte(second))
}
