package conversationresponses

import (
	"arbor-server/chat-api/internal/domain/conversation"
)

// ConversationResponse represents a conversation summary
type ConversationResponse struct {
	ID        uint    `json:"id"`
	Title     *string `json:"title,omitempty"`
	CreatedAt int64   `json:"created_at"`
	UpdatedAt int64   `json:"updated_at"`
}

// ConversationListResponse represents a list of conversations, most recently
// updated first
type ConversationListResponse struct {
	Object string                 `json:"object"`
	Data   []ConversationResponse `json:"data"`
	Total  int                    `json:"total"`
}

// ConversationDeletedResponse represents the delete confirmation response.
// Success is reported whether or not a row was removed.
type ConversationDeletedResponse struct {
	Success bool `json:"success"`
}

// BranchResponse represents one branch descriptor. The main entry is
// synthetic: id 0, no parent message, isMainBranch true.
type BranchResponse struct {
	ID              uint   `json:"id"`
	BranchID        string `json:"branchId"`
	Name            string `json:"name"`
	ParentMessageID *uint  `json:"parentMessageId"`
	IsMainBranch    bool   `json:"isMainBranch"`
	CreatedAt       int64  `json:"created_at"`
}

// BranchListResponse represents the branch listing of a conversation
type BranchListResponse struct {
	Object string           `json:"object"`
	Data   []BranchResponse `json:"data"`
}

// ForkResponse represents the result of forking a conversation at a message
type ForkResponse struct {
	Success    bool   `json:"success"`
	BranchID   string `json:"branchId"`
	BranchName string `json:"branchName"`
}

// MessageResponse represents one transcript entry
type MessageResponse struct {
	ID              uint   `json:"id"`
	ConversationID  uint   `json:"conversationId"`
	ParentMessageID *uint  `json:"parentMessageId"`
	BranchID        string `json:"branchId"`
	Role            string `json:"role"`
	Content         string `json:"content"`
	CreatedAt       int64  `json:"created_at"`
}

// TranscriptResponse represents a resolved transcript. Data is always a
// concrete array, never null, so unknown branches serialize as [].
type TranscriptResponse struct {
	Object string            `json:"object"`
	Data   []MessageResponse `json:"data"`
}

// NewConversationResponse creates a response from a domain conversation
func NewConversationResponse(conv *conversation.Conversation) ConversationResponse {
	return ConversationResponse{
		ID:        conv.ID,
		Title:     conv.Title,
		CreatedAt: conv.CreatedAt.Unix(),
		UpdatedAt: conv.UpdatedAt.Unix(),
	}
}

// NewConversationListResponse creates a conversation list response
func NewConversationListResponse(conversations []*conversation.Conversation) *ConversationListResponse {
	data := make([]ConversationResponse, 0, len(conversations))
	for _, conv := range conversations {
		if conv == nil {
			continue
		}
		data = append(data, NewConversationResponse(conv))
	}
	return &ConversationListResponse{
		Object: "list",
		Data:   data,
		Total:  len(data),
	}
}

// NewBranchResponse creates a response from a domain branch
func NewBranchResponse(branch *conversation.Branch) BranchResponse {
	return BranchResponse{
		ID:              branch.ID,
		BranchID:        branch.BranchID,
		Name:            branch.Name,
		ParentMessageID: branch.ParentMessageID,
		IsMainBranch:    branch.IsMainBranch,
		CreatedAt:       branch.CreatedAt.Unix(),
	}
}

// NewBranchListResponse creates a branch list response
func NewBranchListResponse(branches []*conversation.Branch) *BranchListResponse {
	data := make([]BranchResponse, 0, len(branches))
	for _, branch := range branches {
		if branch == nil {
			continue
		}
		data = append(data, NewBranchResponse(branch))
	}
	return &BranchListResponse{
		Object: "list",
		Data:   data,
	}
}

// NewForkResponse creates a fork response from the created branch
func NewForkResponse(branch *conversation.Branch) *ForkResponse {
	return &ForkResponse{
		Success:    true,
		BranchID:   branch.BranchID,
		BranchName: branch.Name,
	}
}

// NewMessageResponse creates a response from a domain message
func NewMessageResponse(msg *conversation.Message) MessageResponse {
	return MessageResponse{
		ID:              msg.ID,
		ConversationID:  msg.ConversationID,
		ParentMessageID: msg.ParentMessageID,
		BranchID:        msg.BranchID,
		Role:            string(msg.Role),
		Content:         msg.Content,
		CreatedAt:       msg.CreatedAt.Unix(),
	}
}

// NewTranscriptResponse creates a transcript response
func NewTranscriptResponse(messages []*conversation.Message) *TranscriptResponse {
	data := make([]MessageResponse, 0, len(messages))
	for _, msg := range messages {
		if msg == nil {
			continue
		}
		data = append(data, NewMessageResponse(msg))
	}
	return &TranscriptResponse{
		Object: "list",
		Data:   data,
	}
}
