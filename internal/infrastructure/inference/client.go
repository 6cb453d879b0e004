package inference

import (
	"context"
	"errors"
	"io"

	openai "github.com/sashabaranov/go-openai"

	"arbor-server/chat-api/internal/config"
	"arbor-server/chat-api/internal/domain/conversation"
	"arbor-server/chat-api/internal/utils/platformerrors"
)

// DeltaHandler receives each streamed content fragment as it arrives.
type DeltaHandler func(delta string) error

// Client streams chat completions from the upstream model endpoint.
type Client interface {
	// StreamCompletion runs a completion over the transcript, invoking
	// onDelta per content fragment. It returns the accumulated assistant
	// text; on cancellation the text accumulated so far comes back with
	// the context error so callers can decide what to persist.
	StreamCompletion(ctx context.Context, transcript []*conversation.Message, onDelta DeltaHandler) (string, error)
}

type openAIClient struct {
	client *openai.Client
	model  string
}

// NewClient constructs a streaming completion client for the configured
// upstream.
func NewClient(cfg *config.Config) Client {
	clientCfg := openai.DefaultConfig(cfg.InferenceAPIKey)
	clientCfg.BaseURL = cfg.InferenceBaseURL

	return &openAIClient{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.InferenceModel,
	}
}

func toChatMessages(transcript []*conversation.Message) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(transcript))
	for _, msg := range transcript {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}
	return messages
}

// StreamCompletion implements Client.
func (c *openAIClient) StreamCompletion(ctx context.Context, transcript []*conversation.Message, onDelta DeltaHandler) (string, error) {
	stream, err := c.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: toChatMessages(transcript),
		Stream:   true,
	})
	if err != nil {
		return "", platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal,
			"failed to open completion stream", err, "3b9e17c4-a258-4f06-bd83-60f1d9a42e75")
	}
	defer stream.Close()

	var accumulated []byte
	for {
		response, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return string(accumulated), nil
			}
			// Cancellation hands back the partial text with the cause so
			// the caller chooses between persisting it and dropping it.
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return string(accumulated), err
			}
			return string(accumulated), platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal,
				"completion stream failed", err, "91c5d2f8-37ab-4e60-852d-fe04b86a13c9")
		}

		if len(response.Choices) == 0 {
			continue
		}
		delta := response.Choices[0].Delta.Content
		if delta == "" {
			continue
		}

		accumulated = append(accumulated, delta...)
		if onDelta != nil {
			if err := onDelta(delta); err != nil {
				return string(accumulated), err
			}
		}
	}
}
