package chatresponses

// StreamDelta is one SSE data payload carrying a chunk of generated text.
type StreamDelta struct {
	Content string `json:"content"`
}

// StreamConversationCreated is emitted before any deltas when the relay
// created a conversation for this turn, so the client can adopt its id.
type StreamConversationCreated struct {
	ConversationID uint `json:"conversationId"`
}

// StreamDone is the sentinel payload terminating the event stream.
const StreamDone = "[DONE]"
