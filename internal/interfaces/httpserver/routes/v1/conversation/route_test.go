package conversation

import (
	"context"
	"encoding/json"
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
	conversationdomain "arbor-server/chat-api/internal/domain/conversation"
	"arbor-server/chat-api/internal/infrastructure/database"
	"arbor-server/chat-api/internal/infrastructure/database/repository/conversationrepo"
	"arbor-server/chat-api/internal/infrastructure/database/transaction"
	"arbor-server/chat-api/internal/interfaces/httpserver/handlers/conversationhandler"
	conversationresponses "arbor-server/chat-api/internal/interfaces/httpserver/responses/conversation"
	"arbor-server/chat-api/internal/utils/idgen"
	"arbor-server/chat-api/internal/utils/platformerrors"
)

type stubResolver struct {
	principals map[string]*domain.Principal
}

func (s *stubResolver) Resolve(ctx context.Context, token string) (*domain.Principal, error) {
	if p, ok := s.principals[token]; ok {
		return p, nil
	}
	return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeUnauthorized,
		"unknown session", nil, "e7a95c20-48d3-4b1f-a6c8-92d05e7f3b61")
}

type routeFixture struct {
	engine        *gin.Engine
	conversations *conversationdomain.ConversationService
	branches      *conversationdomain.BranchService
}

func newRouteFixture(t *testing.T) *routeFixture {
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

	conversationService := conversationdomain.NewConversationService(conversationRepo, messageRepo, tx)
	branchService := conversationdomain.NewBranchService(branchRepo, messageRepo, conversationdomain.BranchServiceConfig{})

	resolver := &stubResolver{principals: map[string]*domain.Principal{
		"alice-token": {ID: "alice", Kind: domain.PrincipalKindUser},
		"bob-token":   {ID: "bob", Kind: domain.PrincipalKindUser},
		"root-token":  {ID: "alice", Kind: domain.PrincipalKindAdmin},
	}}
	logger := zerolog.Nop()

	conversationHandler := conversationhandler.NewConversationHandler(conversationService)
	branchHandler := conversationhandler.NewBranchHandler(branchService)

	engine := gin.New()
	v1 := engine.Group("/v1")
	NewConversationRoute(conversationHandler, resolver, logger).RegisterRouter(v1)
	NewBranchRoute(branchHandler, conversationHandler, resolver, logger).RegisterRouter(v1)

	return &routeFixture{
		engine:        engine,
		conversations: conversationService,
		branches:      branchService,
	}
}

func (f *routeFixture) request(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)
	return rec
}

func (f *routeFixture) seedConversation(t *testing.T, owner string) (*conversationdomain.Conversation, []*conversationdomain.Message) {
	t.Helper()
	ctx := context.Background()

	conv, err := f.conversations.CreateConversation(ctx, conversationdomain.CreateConversationInput{
		OwnerID:             owner,
		OwnerKind:           conversationdomain.OwnerKindUser,
		FirstMessageContent: "hi",
	})
	require.NoError(t, err)

	m1, err := f.conversations.AppendMessage(ctx, conv, conversationdomain.AppendMessageInput{
		Role: conversationdomain.MessageRoleUser, Content: "hi",
	})
	require.NoError(t, err)
	m2, err := f.conversations.AppendMessage(ctx, conv, conversationdomain.AppendMessageInput{
		Role: conversationdomain.MessageRoleAssistant, Content: "hello",
	})
	require.NoError(t, err)

	return conv, []*conversationdomain.Message{m1, m2}
}

func TestListConversations_RequiresAuth(t *testing.T) {
	f := newRouteFixture(t)

	rec := f.request(t, http.MethodGet, "/v1/conversations", "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.request(t, http.MethodGet, "/v1/conversations", "bogus", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListConversations_OnlyOwn(t *testing.T) {
	f := newRouteFixture(t)
	f.seedConversation(t, "alice")
	f.seedConversation(t, "bob")

	rec := f.request(t, http.MethodGet, "/v1/conversations", "alice-token", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp conversationresponses.ConversationListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
}

func TestListConversations_AdminNamespaceIsSeparate(t *testing.T) {
	f := newRouteFixture(t)
	f.seedConversation(t, "alice")

	// Same ID, admin kind: sees nothing.
	rec := f.request(t, http.MethodGet, "/v1/conversations", "root-token", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp conversationresponses.ConversationListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Empty(t, resp.Data)
}

func TestDeleteConversation_SilentNoOp(t *testing.T) {
	f := newRouteFixture(t)
	conv, _ := f.seedConversation(t, "alice")

	// Unknown id still succeeds.
	rec := f.request(t, http.MethodDelete, "/v1/conversations/99999", "alice-token", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"success": true}`, rec.Body.String())

	// Foreign id succeeds without deleting.
	rec = f.request(t, http.MethodDelete, fmt.Sprintf("/v1/conversations/%d", conv.ID), "bob-token", "")
	require.Equal(t, http.StatusOK, rec.Code)

	list := f.request(t, http.MethodGet, "/v1/conversations", "alice-token", "")
	var resp conversationresponses.ConversationListResponse
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)

	// Owner delete removes it.
	rec = f.request(t, http.MethodDelete, fmt.Sprintf("/v1/conversations/%d", conv.ID), "alice-token", "")
	require.Equal(t, http.StatusOK, rec.Code)

	list = f.request(t, http.MethodGet, "/v1/conversations", "alice-token", "")
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &resp))
	require.Empty(t, resp.Data)
}

func TestListBranches_NotOwnedIs404(t *testing.T) {
	f := newRouteFixture(t)
	conv, _ := f.seedConversation(t, "alice")

	rec := f.request(t, http.MethodGet, fmt.Sprintf("/v1/conversations/%d/branches", conv.ID), "bob-token", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListBranches_SyntheticMainFirst(t *testing.T) {
	f := newRouteFixture(t)
	conv, _ := f.seedConversation(t, "alice")

	rec := f.request(t, http.MethodGet, fmt.Sprintf("/v1/conversations/%d/branches", conv.ID), "alice-token", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp conversationresponses.BranchListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	require.Equal(t, "main", resp.Data[0].BranchID)
	require.True(t, resp.Data[0].IsMainBranch)
	require.Zero(t, resp.Data[0].ID)
	require.Nil(t, resp.Data[0].ParentMessageID)
}

func TestFork_Contract(t *testing.T) {
	f := newRouteFixture(t)
	conv, msgs := f.seedConversation(t, "alice")

	// Foreign conversation forks are 404, indistinguishable from missing.
	rec := f.request(t, http.MethodPost, fmt.Sprintf("/v1/conversations/%d/fork", conv.ID), "bob-token",
		fmt.Sprintf(`{"messageId": %d}`, msgs[1].ID))
	require.Equal(t, http.StatusNotFound, rec.Code)

	// Unknown message is 404.
	rec = f.request(t, http.MethodPost, fmt.Sprintf("/v1/conversations/%d/fork", conv.ID), "alice-token",
		`{"messageId": 99999}`)
	require.Equal(t, http.StatusNotFound, rec.Code)

	// A valid fork returns a fresh token and the default name.
	rec = f.request(t, http.MethodPost, fmt.Sprintf("/v1/conversations/%d/fork", conv.ID), "alice-token",
		fmt.Sprintf(`{"messageId": %d}`, msgs[1].ID))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp conversationresponses.ForkResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.True(t, idgen.ValidateBranchToken(resp.BranchID))
	require.Equal(t, fmt.Sprintf("Branch from message %d", msgs[1].ID), resp.BranchName)
}

func TestTranscript_Contract(t *testing.T) {
	f := newRouteFixture(t)
	conv, msgs := f.seedConversation(t, "alice")

	rec := f.request(t, http.MethodPost, fmt.Sprintf("/v1/conversations/%d/fork", conv.ID), "alice-token",
		fmt.Sprintf(`{"messageId": %d, "branchName": "alt"}`, msgs[1].ID))
	require.Equal(t, http.StatusOK, rec.Code)
	var fork conversationresponses.ForkResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fork))

	_, err := f.conversations.AppendMessage(context.Background(), conv, conversationdomain.AppendMessageInput{
		BranchID: fork.BranchID,
		Role:     conversationdomain.MessageRoleUser,
		Content:  "continue?",
	})
	require.NoError(t, err)

	// Branch transcript: main prefix through the fork point plus the branch message.
	rec = f.request(t, http.MethodGet,
		fmt.Sprintf("/v1/conversations/%d/messages?branchId=%s", conv.ID, fork.BranchID), "alice-token", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var transcript conversationresponses.TranscriptResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &transcript))
	require.Len(t, transcript.Data, 3)
	require.Equal(t, "continue?", transcript.Data[2].Content)

	// Main is unaffected by the branch.
	rec = f.request(t, http.MethodGet,
		fmt.Sprintf("/v1/conversations/%d/messages", conv.ID), "alice-token", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &transcript))
	require.Len(t, transcript.Data, 2)

	// An unknown branch is an empty list, not a 404.
	rec = f.request(t, http.MethodGet,
		fmt.Sprintf("/v1/conversations/%d/messages?branchId=doesnotexist11aa", conv.ID), "alice-token", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &transcript))
	require.NotNil(t, transcript.Data)
	require.Empty(t, transcript.Data)

	// A foreign conversation is a 404 even with a valid branch.
	rec = f.request(t, http.MethodGet,
		fmt.Sprintf("/v1/conversations/%d/messages?branchId=%s", conv.ID, fork.BranchID), "bob-token", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}
