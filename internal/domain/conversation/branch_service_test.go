package conversation_test

import (
	"context"
	"testing"
	"time"

	"arbor-server/chat-api/internal/domain/conversation"
	"arbor-server/chat-api/internal/utils/idgen"
	"arbor-server/chat-api/internal/utils/platformerrors"
)

// mockMessageRepository is an in-memory MessageRepository for testing
type mockMessageRepository struct {
	messages []*conversation.Message
	nextID   uint
}

func newMockMessageRepository() *mockMessageRepository {
	return &mockMessageRepository{nextID: 1}
}

func (m *mockMessageRepository) Create(ctx context.Context, msg *conversation.Message) error {
	msg.ID = m.nextID
	m.nextID++
	m.messages = append(m.messages, msg)
	return nil
}

func (m *mockMessageRepository) FindByID(ctx context.Context, conversationID, messageID uint) (*conversation.Message, error) {
	for _, msg := range m.messages {
		if msg.ConversationID == conversationID && msg.ID == messageID {
			return msg, nil
		}
	}
	return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound,
		"message not found", nil, "")
}

func (m *mockMessageRepository) ListByBranch(ctx context.Context, conversationID uint, branchID string) ([]*conversation.Message, error) {
	var out []*conversation.Message
	for _, msg := range m.messages {
		if msg.ConversationID == conversationID && msg.BranchID == branchID {
			out = append(out, msg)
		}
	}
	conversation.SortMessages(out)
	return out, nil
}

func (m *mockMessageRepository) DeleteByConversation(ctx context.Context, conversationID uint) error {
	var kept []*conversation.Message
	for _, msg := range m.messages {
		if msg.ConversationID != conversationID {
			kept = append(kept, msg)
		}
	}
	m.messages = kept
	return nil
}

// mockBranchRepository is an in-memory BranchRepository for testing
type mockBranchRepository struct {
	branches []*conversation.Branch
	nextID   uint
	// conflictsLeft makes the next N Create calls fail with a conflict to
	// simulate losing the token race.
	conflictsLeft int
}

func newMockBranchRepository() *mockBranchRepository {
	return &mockBranchRepository{nextID: 1}
}

func (m *mockBranchRepository) Create(ctx context.Context, branch *conversation.Branch) error {
	if m.conflictsLeft > 0 {
		m.conflictsLeft--
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeConflict,
			"branch token already exists", nil, "")
	}
	for _, b := range m.branches {
		if b.ConversationID == branch.ConversationID && b.BranchID == branch.BranchID {
			return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeConflict,
				"branch token already exists", nil, "")
		}
	}
	branch.ID = m.nextID
	m.nextID++
	branch.CreatedAt = time.Now()
	m.branches = append(m.branches, branch)
	return nil
}

func (m *mockBranchRepository) FindByBranchID(ctx context.Context, conversationID uint, branchID string) (*conversation.Branch, error) {
	for _, b := range m.branches {
		if b.ConversationID == conversationID && b.BranchID == branchID {
			return b, nil
		}
	}
	return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound,
		"branch not found", nil, "")
}

func (m *mockBranchRepository) ListByConversation(ctx context.Context, conversationID uint) ([]*conversation.Branch, error) {
	var out []*conversation.Branch
	for _, b := range m.branches {
		if b.ConversationID == conversationID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *mockBranchRepository) ExistsBranchID(ctx context.Context, conversationID uint, branchID string) (bool, error) {
	for _, b := range m.branches {
		if b.ConversationID == conversationID && b.BranchID == branchID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockBranchRepository) DeleteByConversation(ctx context.Context, conversationID uint) error {
	var kept []*conversation.Branch
	for _, b := range m.branches {
		if b.ConversationID != conversationID {
			kept = append(kept, b)
		}
	}
	m.branches = kept
	return nil
}

func testConversation() *conversation.Conversation {
	return &conversation.Conversation{
		ID:        1,
		OwnerID:   "user-1",
		OwnerKind: conversation.OwnerKindUser,
		CreatedAt: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
	}
}

func seedMainMessages(t *testing.T, msgs *mockMessageRepository, conv *conversation.Conversation, count int) []*conversation.Message {
	t.Helper()
	base := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	out := make([]*conversation.Message, 0, count)
	for i := 0; i < count; i++ {
		msg := &conversation.Message{
			ConversationID: conv.ID,
			BranchID:       conversation.MainBranchID,
			Role:           conversation.MessageRoleUser,
			Content:        "m",
			CreatedAt:      base.Add(time.Duration(i) * time.Second),
		}
		if err := msgs.Create(context.Background(), msg); err != nil {
			t.Fatalf("seed message: %v", err)
		}
		out = append(out, msg)
	}
	return out
}

func TestListBranches_SyntheticMainFirst(t *testing.T) {
	branches := newMockBranchRepository()
	messages := newMockMessageRepository()
	svc := conversation.NewBranchService(branches, messages, conversation.BranchServiceConfig{})
	conv := testConversation()

	parent := uint(1)
	for _, token := range []string{"aaaa111122223333", "bbbb444455556666"} {
		err := branches.Create(context.Background(), &conversation.Branch{
			ConversationID:  conv.ID,
			BranchID:        token,
			Name:            "fork",
			ParentMessageID: &parent,
		})
		if err != nil {
			t.Fatalf("seed branch: %v", err)
		}
	}

	got, err := svc.ListBranches(context.Background(), conv)
	if err != nil {
		t.Fatalf("ListBranches() error = %v", err)
	}

	if len(got) != 3 {
		t.Fatalf("ListBranches() returned %d branches, want 3", len(got))
	}

	main := got[0]
	if main.BranchID != conversation.MainBranchID || !main.IsMainBranch {
		t.Errorf("first entry = %+v, want synthetic main", main)
	}
	if main.ID != 0 || main.ParentMessageID != nil {
		t.Errorf("synthetic main has ID %d and parent %v, want 0 and nil", main.ID, main.ParentMessageID)
	}
	if !main.CreatedAt.Equal(conv.CreatedAt) {
		t.Errorf("synthetic main CreatedAt = %v, want conversation CreatedAt %v", main.CreatedAt, conv.CreatedAt)
	}

	mainCount := 0
	for _, b := range got {
		if b.IsMainBranch {
			mainCount++
		}
	}
	if mainCount != 1 {
		t.Errorf("listing contains %d main entries, want exactly 1", mainCount)
	}
}

func TestFork_CreatesBranchWithDefaults(t *testing.T) {
	branches := newMockBranchRepository()
	messages := newMockMessageRepository()
	svc := conversation.NewBranchService(branches, messages, conversation.BranchServiceConfig{})
	conv := testConversation()
	seeded := seedMainMessages(t, messages, conv, 2)

	branch, err := svc.Fork(context.Background(), conv, conversation.ForkInput{MessageID: seeded[1].ID})
	if err != nil {
		t.Fatalf("Fork() error = %v", err)
	}

	if !idgen.ValidateBranchToken(branch.BranchID) {
		t.Errorf("Fork() branch token %q is not a valid token", branch.BranchID)
	}
	if branch.Name != "Branch from message 2" {
		t.Errorf("Fork() name = %q, want %q", branch.Name, "Branch from message 2")
	}
	if branch.ParentMessageID == nil || *branch.ParentMessageID != seeded[1].ID {
		t.Errorf("Fork() parent = %v, want %d", branch.ParentMessageID, seeded[1].ID)
	}
	if branch.IsMainBranch {
		t.Error("Fork() created a branch flagged as main")
	}
}

func TestFork_CustomName(t *testing.T) {
	branches := newMockBranchRepository()
	messages := newMockMessageRepository()
	svc := conversation.NewBranchService(branches, messages, conversation.BranchServiceConfig{})
	conv := testConversation()
	seeded := seedMainMessages(t, messages, conv, 1)

	name := "alternate ending"
	branch, err := svc.Fork(context.Background(), conv, conversation.ForkInput{MessageID: seeded[0].ID, Name: &name})
	if err != nil {
		t.Fatalf("Fork() error = %v", err)
	}
	if branch.Name != name {
		t.Errorf("Fork() name = %q, want %q", branch.Name, name)
	}
}

func TestFork_MessageNotFound(t *testing.T) {
	branches := newMockBranchRepository()
	messages := newMockMessageRepository()
	svc := conversation.NewBranchService(branches, messages, conversation.BranchServiceConfig{})
	conv := testConversation()

	_, err := svc.Fork(context.Background(), conv, conversation.ForkInput{MessageID: 42})
	if !platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound) {
		t.Errorf("Fork() error = %v, want not-found", err)
	}
}

func TestFork_RetriesOnTokenConflict(t *testing.T) {
	branches := newMockBranchRepository()
	branches.conflictsLeft = 2
	messages := newMockMessageRepository()
	svc := conversation.NewBranchService(branches, messages, conversation.BranchServiceConfig{TokenMaxRetries: 5})
	conv := testConversation()
	seeded := seedMainMessages(t, messages, conv, 1)

	branch, err := svc.Fork(context.Background(), conv, conversation.ForkInput{MessageID: seeded[0].ID})
	if err != nil {
		t.Fatalf("Fork() error = %v, want success after retries", err)
	}
	if branch.BranchID == "" {
		t.Error("Fork() returned empty branch token")
	}
}

func TestFork_ConflictAfterRetriesExhausted(t *testing.T) {
	branches := newMockBranchRepository()
	branches.conflictsLeft = 10
	messages := newMockMessageRepository()
	svc := conversation.NewBranchService(branches, messages, conversation.BranchServiceConfig{TokenMaxRetries: 3})
	conv := testConversation()
	seeded := seedMainMessages(t, messages, conv, 1)

	_, err := svc.Fork(context.Background(), conv, conversation.ForkInput{MessageID: seeded[0].ID})
	if !platformerrors.IsErrorType(err, platformerrors.ErrorTypeConflict) {
		t.Errorf("Fork() error = %v, want conflict after exhausted retries", err)
	}
}

func TestFork_StrictValidationRejectsBranchMessages(t *testing.T) {
	branches := newMockBranchRepository()
	messages := newMockMessageRepository()
	conv := testConversation()

	offMain := &conversation.Message{
		ConversationID: conv.ID,
		BranchID:       "ffff000011112222",
		Role:           conversation.MessageRoleAssistant,
		Content:        "side quest",
		CreatedAt:      time.Now(),
	}
	if err := messages.Create(context.Background(), offMain); err != nil {
		t.Fatalf("seed message: %v", err)
	}

	strict := conversation.NewBranchService(branches, messages, conversation.BranchServiceConfig{StrictForkValidation: true})
	if _, err := strict.Fork(context.Background(), conv, conversation.ForkInput{MessageID: offMain.ID}); !platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound) {
		t.Errorf("strict Fork() error = %v, want not-found", err)
	}

	lax := conversation.NewBranchService(branches, messages, conversation.BranchServiceConfig{})
	if _, err := lax.Fork(context.Background(), conv, conversation.ForkInput{MessageID: offMain.ID}); err != nil {
		t.Errorf("lax Fork() error = %v, want success", err)
	}
}

func TestResolveTranscript_MainOnly(t *testing.T) {
	branches := newMockBranchRepository()
	messages := newMockMessageRepository()
	svc := conversation.NewBranchService(branches, messages, conversation.BranchServiceConfig{})
	conv := testConversation()
	seedMainMessages(t, messages, conv, 3)

	got, err := svc.ResolveTranscript(context.Background(), conv, conversation.MainBranchID)
	if err != nil {
		t.Fatalf("ResolveTranscript() error = %v", err)
	}
	if !equalIDs(ids(got), []uint{1, 2, 3}) {
		t.Errorf("ResolveTranscript(main) = %v, want [1 2 3]", ids(got))
	}
}

func TestResolveTranscript_EmptyBranchIDDefaultsToMain(t *testing.T) {
	branches := newMockBranchRepository()
	messages := newMockMessageRepository()
	svc := conversation.NewBranchService(branches, messages, conversation.BranchServiceConfig{})
	conv := testConversation()
	seedMainMessages(t, messages, conv, 2)

	got, err := svc.ResolveTranscript(context.Background(), conv, "")
	if err != nil {
		t.Fatalf("ResolveTranscript() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("ResolveTranscript(\"\") returned %d messages, want 2", len(got))
	}
}

func TestResolveTranscript_ForkedBranch(t *testing.T) {
	branches := newMockBranchRepository()
	messages := newMockMessageRepository()
	svc := conversation.NewBranchService(branches, messages, conversation.BranchServiceConfig{})
	conv := testConversation()
	seeded := seedMainMessages(t, messages, conv, 2)

	branch, err := svc.Fork(context.Background(), conv, conversation.ForkInput{MessageID: seeded[1].ID})
	if err != nil {
		t.Fatalf("Fork() error = %v", err)
	}

	reply := &conversation.Message{
		ConversationID: conv.ID,
		BranchID:       branch.BranchID,
		Role:           conversation.MessageRoleAssistant,
		Content:        "m3",
		CreatedAt:      seeded[1].CreatedAt.Add(time.Second),
	}
	if err := messages.Create(context.Background(), reply); err != nil {
		t.Fatalf("append branch message: %v", err)
	}

	got, err := svc.ResolveTranscript(context.Background(), conv, branch.BranchID)
	if err != nil {
		t.Fatalf("ResolveTranscript() error = %v", err)
	}
	if !equalIDs(ids(got), []uint{seeded[0].ID, seeded[1].ID, reply.ID}) {
		t.Errorf("ResolveTranscript(fork) = %v, want [1 2 3]", ids(got))
	}

	// The main transcript is unaffected by the fork.
	mainGot, err := svc.ResolveTranscript(context.Background(), conv, conversation.MainBranchID)
	if err != nil {
		t.Fatalf("ResolveTranscript(main) error = %v", err)
	}
	if !equalIDs(ids(mainGot), []uint{seeded[0].ID, seeded[1].ID}) {
		t.Errorf("ResolveTranscript(main) = %v, want [1 2]", ids(mainGot))
	}
}

func TestResolveTranscript_UnknownBranchIsEmptyNotError(t *testing.T) {
	branches := newMockBranchRepository()
	messages := newMockMessageRepository()
	svc := conversation.NewBranchService(branches, messages, conversation.BranchServiceConfig{})
	conv := testConversation()
	seedMainMessages(t, messages, conv, 2)

	got, err := svc.ResolveTranscript(context.Background(), conv, "deadbeefdeadbeef")
	if err != nil {
		t.Fatalf("ResolveTranscript(unknown) error = %v, want empty result", err)
	}
	if len(got) != 0 {
		t.Errorf("ResolveTranscript(unknown) returned %d messages, want 0", len(got))
	}
}
