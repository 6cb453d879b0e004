package chatrequests

// ChatRequest represents one chat turn. ConversationID is omitted on the
// first turn of an authenticated session; the relay creates a conversation
// and reports its id in the stream. Anonymous callers may omit it always.
type ChatRequest struct {
	Message        string `json:"message" binding:"required"`
	ConversationID *uint  `json:"conversationId,omitempty"`
	BranchID       string `json:"branchId,omitempty"`
	Model          string `json:"model,omitempty"`
}
