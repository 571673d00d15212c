package chat

import (
	"encoding/json"

	"RTCSession/tools/decode"
)

// Frame types spoken on the push channel. Everything else on the wire is
// a raw text line: either a system notice or "author: body".
const (
	FrameTyping         = "typing"
	FrameStopTyping     = "stop_typing"
	FrameDeleteMessage  = "delete_message"
	FrameMessageDeleted = "message_deleted"
)

type Frame struct {
	Type      string `json:"type"`
	Username  string `json:"username,omitempty"`
	MessageID string `json:"messageId,omitempty"`
}

// Incoming is one decoded unit off the transport: a structured frame or a
// raw text line, never both.
type Incoming struct {
	Frame *Frame
	Text  string
}

// ParseIncoming classifies a raw websocket payload. Anything that is not
// a JSON object carrying a known "type" is treated as plain text, which
// matches the backend: system notices and chat lines arrive unframed.
func ParseIncoming(raw []byte) Incoming {
	f, err := decode.DecodeJSON[Frame](raw)
	if err != nil || f.Type == "" {
		return Incoming{Text: string(raw)}
	}
	switch f.Type {
	case FrameTyping, FrameStopTyping, FrameMessageDeleted, FrameDeleteMessage:
		return Incoming{Frame: f}
	default:
		// unknown structured frames pass through as text for the view
		return Incoming{Text: string(raw)}
	}
}

// ---- outgoing frame builders ----

func BuildTyping(username string) []byte {
	b, _ := json.Marshal(Frame{Type: FrameTyping, Username: username})
	return b
}

func BuildStopTyping(username string) []byte {
	b, _ := json.Marshal(Frame{Type: FrameStopTyping, Username: username})
	return b
}

func BuildDeleteMessage(messageID, username string) []byte {
	b, _ := json.Marshal(Frame{Type: FrameDeleteMessage, MessageID: messageID, Username: username})
	return b
}
