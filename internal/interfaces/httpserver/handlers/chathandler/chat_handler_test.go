package chathandler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"arbor-server/chat-api/internal/domain"
	"arbor-server/chat-api/internal/domain/conversation"
	"arbor-server/chat-api/internal/infrastructure/database"
	"arbor-server/chat-api/internal/infrastructure/database/repository/conversationrepo"
	"arbor-server/chat-api/internal/infrastructure/database/transaction"
	"arbor-server/chat-api/internal/infrastructure/inference"
)

type fakeInference struct {
	deltas     []string
	finalErr   error
	transcript []*conversation.Message
}

func (f *fakeInference) StreamCompletion(ctx context.Context, transcript []*conversation.Message, onDelta inference.DeltaHandler) (string, error) {
	f.transcript = transcript
	var acc strings.Builder
	for _, delta := range f.deltas {
		acc.WriteString(delta)
		if onDelta != nil {
			if err := onDelta(delta); err != nil {
				return acc.String(), err
			}
		}
	}
	return acc.String(), f.finalErr
}

type chatFixture struct {
	engine        *gin.Engine
	upstream      *fakeInference
	conversations *conversation.ConversationService
	branches      *conversation.BranchService
	messages      conversation.MessageRepository
}

// newChatFixture builds the relay on an in-memory store. When principal is
// non-nil every request is treated as that caller; nil means anonymous.
func newChatFixture(t *testing.T, principal *domain.Principal, upstream *fakeInference) *chatFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrateSchemas(db))

	tx := transaction.NewDatabase(db)
	conversationRepo := conversationrepo.NewConversationGormRepository(tx)
	messageRepo := conversationrepo.NewMessageGormRepository(tx)
	branchRepo := conversationrepo.NewBranchGormRepository(tx)

	conversationService := conversation.NewConversationService(conversationRepo, messageRepo, tx)
	branchService := conversation.NewBranchService(branchRepo, messageRepo, conversation.BranchServiceConfig{})

	handler := NewChatHandler(conversationService, branchService, upstream, zerolog.Nop())

	engine := gin.New()
	engine.POST("/v1/chat", func(c *gin.Context) {
		if principal != nil {
			c.Set("principal", *principal)
		}
		c.Next()
	}, handler.CreateChatCompletion)

	return &chatFixture{
		engine:        engine,
		upstream:      upstream,
		conversations: conversationService,
		branches:      branchService,
		messages:      messageRepo,
	}
}

func (f *chatFixture) post(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)
	return rec
}

func TestChat_AnonymousStreamsWithoutPersisting(t *testing.T) {
	upstream := &fakeInference{deltas: []string{"Hel", "lo"}}
	f := newChatFixture(t, nil, upstream)

	rec := f.post(t, `{"message": "hi there"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	require.Contains(t, body, `data: {"content":"Hel"}`)
	require.Contains(t, body, `data: {"content":"lo"}`)
	require.Contains(t, body, "data: [DONE]")
	require.NotContains(t, body, "conversationId")

	// Nothing durable: no conversation rows anywhere.
	conversations, err := f.conversations.ListConversations(context.Background(), "anyone", conversation.OwnerKindUser)
	require.NoError(t, err)
	require.Empty(t, conversations)
}

func TestChat_FirstTurnCreatesConversation(t *testing.T) {
	upstream := &fakeInference{deltas: []string{"Hello ", "back"}}
	principal := &domain.Principal{ID: "alice", Kind: domain.PrincipalKindUser}
	f := newChatFixture(t, principal, upstream)

	rec := f.post(t, `{"message": "hi there"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	conversations, err := f.conversations.ListConversations(context.Background(), "alice", conversation.OwnerKindUser)
	require.NoError(t, err)
	require.Len(t, conversations, 1)
	conv := conversations[0]

	// The created conversation id is announced before any content delta.
	body := rec.Body.String()
	idEvent := fmt.Sprintf(`data: {"conversationId":%d}`, conv.ID)
	require.Contains(t, body, idEvent)
	require.Less(t, strings.Index(body, idEvent), strings.Index(body, `data: {"content":`))
	require.Contains(t, body, "data: [DONE]")

	// Title derives from the first message.
	require.NotNil(t, conv.Title)
	require.Equal(t, "hi there", *conv.Title)

	// Both turns landed on main.
	messages, err := f.messages.ListByBranch(context.Background(), conv.ID, conversation.MainBranchID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	require.Equal(t, conversation.MessageRoleUser, messages[0].Role)
	require.Equal(t, "hi there", messages[0].Content)
	require.Equal(t, conversation.MessageRoleAssistant, messages[1].Role)
	require.Equal(t, "Hello back", messages[1].Content)
}

func TestChat_SecondTurnSendsFullTranscript(t *testing.T) {
	upstream := &fakeInference{deltas: []string{"sure"}}
	principal := &domain.Principal{ID: "alice", Kind: domain.PrincipalKindUser}
	f := newChatFixture(t, principal, upstream)

	f.post(t, `{"message": "hi there"}`)
	conversations, err := f.conversations.ListConversations(context.Background(), "alice", conversation.OwnerKindUser)
	require.NoError(t, err)
	conv := conversations[0]

	rec := f.post(t, fmt.Sprintf(`{"message": "and again", "conversationId": %d}`, conv.ID))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, rec.Body.String(), "conversationId")

	// Upstream saw the prior user/assistant turns plus the new message.
	require.Len(t, f.upstream.transcript, 3)
	require.Equal(t, "and again", f.upstream.transcript[2].Content)
}

func TestChat_ForeignConversationIs404(t *testing.T) {
	upstream := &fakeInference{deltas: []string{"x"}}
	principal := &domain.Principal{ID: "alice", Kind: domain.PrincipalKindUser}
	f := newChatFixture(t, principal, upstream)

	f.post(t, `{"message": "hi"}`)
	conversations, err := f.conversations.ListConversations(context.Background(), "alice", conversation.OwnerKindUser)
	require.NoError(t, err)
	conv := conversations[0]

	rec := postAs(t, f, &domain.Principal{ID: "bob", Kind: domain.PrincipalKindUser}, conv.ID)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

// postAs posts against the fixture's store as a different principal.
func postAs(t *testing.T, f *chatFixture, principal *domain.Principal, convID uint) *httptest.ResponseRecorder {
	t.Helper()
	handler := NewChatHandler(f.conversations, f.branches, f.upstream, zerolog.Nop())
	engine := gin.New()
	engine.POST("/v1/chat", func(c *gin.Context) {
		c.Set("principal", *principal)
		c.Next()
	}, handler.CreateChatCompletion)

	req := httptest.NewRequest(http.MethodPost, "/v1/chat",
		strings.NewReader(fmt.Sprintf(`{"message": "steal", "conversationId": %d}`, convID)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestChat_CancelledStreamPersistsPartialText(t *testing.T) {
	upstream := &fakeInference{deltas: []string{"partial "}, finalErr: context.Canceled}
	principal := &domain.Principal{ID: "alice", Kind: domain.PrincipalKindUser}
	f := newChatFixture(t, principal, upstream)

	rec := f.post(t, `{"message": "hi there"}`)
	body := rec.Body.String()
	require.Contains(t, body, `data: {"content":"partial "}`)
	require.NotContains(t, body, "data: [DONE]")

	conversations, err := f.conversations.ListConversations(context.Background(), "alice", conversation.OwnerKindUser)
	require.NoError(t, err)
	require.Len(t, conversations, 1)

	messages, err := f.messages.ListByBranch(context.Background(), conversations[0].ID, conversation.MainBranchID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	require.Equal(t, "partial ", messages[1].Content)
}

func TestChat_MissingMessageIsValidationError(t *testing.T) {
	f := newChatFixture(t, nil, &fakeInference{})
	rec := f.post(t, `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
