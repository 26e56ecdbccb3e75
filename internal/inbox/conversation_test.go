package inbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConversationIDCommutative(t *testing.T) {
	pairs := [][2]string{
		{"alice", "bob"},
		{"bob", "alice"},
		{"9f2c", "0a1b"},
		{"same", "same"},
	}
	for _, p := range pairs {
		assert.Equal(t, ConversationID(p[0], p[1]), ConversationID(p[1], p[0]))
	}
}

func TestConversationIDFormat(t *testing.T) {
	assert.Equal(t, "alice-bob", ConversationID("bob", "alice"))
	assert.Equal(t, "alice-bob", ConversationID("alice", "bob"))
}
