package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIncomingStructured(t *testing.T) {
	inc := ParseIncoming([]byte(`{"type":"typing","username":"alice"}`))
	require.NotNil(t, inc.Frame)
	assert.Equal(t, FrameTyping, inc.Frame.Type)
	assert.Equal(t, "alice", inc.Frame.Username)

	inc = ParseIncoming([]byte(`{"type":"message_deleted","messageId":"42"}`))
	require.NotNil(t, inc.Frame)
	assert.Equal(t, "42", inc.Frame.MessageID)
}

func TestParseIncomingNumericMessageID(t *testing.T) {
	// older backend versions send the id as a JSON number
	inc := ParseIncoming([]byte(`{"type":"message_deleted","messageId":42}`))
	require.NotNil(t, inc.Frame)
	assert.Equal(t, "42", inc.Frame.MessageID)
}

func TestParseIncomingRawText(t *testing.T) {
	inc := ParseIncoming([]byte("alice: hi there"))
	require.Nil(t, inc.Frame)
	assert.Equal(t, "alice: hi there", inc.Text)

	// JSON without a known type stays text for the view
	inc = ParseIncoming([]byte(`{"foo":"bar"}`))
	require.Nil(t, inc.Frame)
	assert.Equal(t, `{"foo":"bar"}`, inc.Text)
}

func TestBuilders(t *testing.T) {
	inc := ParseIncoming(BuildTyping("alice"))
	require.NotNil(t, inc.Frame)
	assert.Equal(t, FrameTyping, inc.Frame.Type)

	inc = ParseIncoming(BuildStopTyping("alice"))
	require.NotNil(t, inc.Frame)
	assert.Equal(t, FrameStopTyping, inc.Frame.Type)

	inc = ParseIncoming(BuildDeleteMessage("42", "alice"))
	require.NotNil(t, inc.Frame)
	assert.Equal(t, FrameDeleteMessage, inc.Frame.Type)
	assert.Equal(t, "42", inc.Frame.MessageID)
	assert.Equal(t, "alice", inc.Frame.Username)
}
