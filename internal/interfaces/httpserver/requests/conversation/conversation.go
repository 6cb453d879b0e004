package conversationrequests

// ForkConversationRequest represents the request to fork a conversation at a message
type ForkConversationRequest struct {
	MessageID  uint    `json:"messageId" binding:"required"`
	BranchName *string `json:"branchName,omitempty"`
}

// TranscriptQueryParams represents query parameters for reading a transcript
type TranscriptQueryParams struct {
	BranchID string `form:"branchId"`
}
