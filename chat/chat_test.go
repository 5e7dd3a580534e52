package chat

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/GoCodeAlone/todochat/conversation"
	"github.com/GoCodeAlone/todochat/interpreter"
	"github.com/GoCodeAlone/todochat/storage"
	"github.com/GoCodeAlone/todochat/task"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingInterpreter struct {
	histories [][]interpreter.Turn
	reply     string
}

func (r *recordingInterpreter) Interpret(_ context.Context, _, text string, history []interpreter.Turn) interpreter.Result {
	r.histories = append(r.histories, history)
	return interpreter.Result{Reply: r.reply + text, Operations: []interpreter.OperationRecord{}}
}

func newTestConversations(t *testing.T) (*conversation.Store, *task.Service) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "todo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return conversation.NewStore(db), task.NewService(task.NewSQLiteStore(db), nil, nil)
}

func TestFlexibleID_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		body string
		want FlexibleID
	}{
		{`{"conversation_id": 42, "message": "hi"}`, "42"},
		{`{"conversation_id": "42", "message": "hi"}`, "42"},
		{`{"conversation_id": null, "message": "hi"}`, ""},
		{`{"message": "hi"}`, ""},
	}
	for _, tt := range tests {
		var req Request
		require.NoError(t, json.Unmarshal([]byte(tt.body), &req), tt.body)
		assert.Equal(t, tt.want, req.ConversationID, tt.body)
	}

	var req Request
	assert.Error(t, json.Unmarshal([]byte(`{"conversation_id": true}`), &req))
}

func TestFlexibleID_Int64(t *testing.T) {
	id, ok := FlexibleID("7").Int64()
	assert.True(t, ok)
	assert.Equal(t, int64(7), id)

	for _, bad := range []FlexibleID{"", "abc", "-1", "0", "1.5"} {
		_, ok := bad.Int64()
		assert.False(t, ok, string(bad))
	}
}

func TestHandle_EmptyMessage(t *testing.T) {
	convs, _ := newTestConversations(t)
	svc := NewService(convs, &recordingInterpreter{}, nil)

	_, err := svc.Handle(context.Background(), "u1", Request{Message: "   "})
	assert.True(t, errors.Is(err, ErrEmptyMessage))
}

func TestHandle_CreatesConversationAndStoresTurns(t *testing.T) {
	convs, tasks := newTestConversations(t)
	svc := NewService(convs, interpreter.New(tasks), nil)
	ctx := context.Background()

	resp, err := svc.Handle(ctx, "u1", Request{Message: "add task buy milk"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ConversationID)
	assert.Equal(t, "Task 'buy milk' has been created successfully.", resp.Response)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "add_task", resp.ToolCalls[0].ToolName)

	id, ok := FlexibleID(resp.ConversationID).Int64()
	require.True(t, ok)
	msgs, err := convs.Messages(ctx, "u1", id, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, conversation.RoleUser, msgs[0].Role)
	assert.Equal(t, "add task buy milk", msgs[0].Content)
	assert.Equal(t, conversation.RoleAssistant, msgs[1].Role)
	assert.Equal(t, resp.Response, msgs[1].Content)
}

func TestHandle_ContinuesConversationWithHistory(t *testing.T) {
	convs, _ := newTestConversations(t)
	interp := &recordingInterpreter{reply: "echo: "}
	svc := NewService(convs, interp, nil)
	ctx := context.Background()

	first, err := svc.Handle(ctx, "u1", Request{Message: "one"})
	require.NoError(t, err)

	var convID FlexibleID
	require.NoError(t, json.Unmarshal([]byte(first.ConversationID), &convID))

	for _, msg := range []string{"two", "three", "four"} {
		resp, err := svc.Handle(ctx, "u1", Request{ConversationID: convID, Message: msg})
		require.NoError(t, err)
		assert.Equal(t, first.ConversationID, resp.ConversationID)
	}

	require.Len(t, interp.histories, 4)
	assert.Empty(t, interp.histories[0])
	assert.Equal(t, []interpreter.Turn{
		{Role: "user", Content: "one"},
		{Role: "assistant", Content: "echo: one"},
	}, interp.histories[1])

	last := interp.histories[3]
	require.Len(t, last, HistoryLimit)
	assert.Equal(t, interpreter.Turn{Role: "assistant", Content: "echo: one"}, last[0])
	assert.Equal(t, interpreter.Turn{Role: "assistant", Content: "echo: three"}, last[4])
}

func TestHandle_ForeignOrUnknownConversationStartsNew(t *testing.T) {
	convs, _ := newTestConversations(t)
	svc := NewService(convs, &recordingInterpreter{}, nil)
	ctx := context.Background()

	alice, err := svc.Handle(ctx, "alice", Request{Message: "hi"})
	require.NoError(t, err)

	bob, err := svc.Handle(ctx, "bob", Request{ConversationID: FlexibleID(alice.ConversationID), Message: "hi"})
	require.NoError(t, err)
	assert.NotEqual(t, alice.ConversationID, bob.ConversationID)

	unknown, err := svc.Handle(ctx, "bob", Request{ConversationID: "9999", Message: "hi"})
	require.NoError(t, err)
	assert.NotEqual(t, "9999", unknown.ConversationID)

	garbage, err := svc.Handle(ctx, "bob", Request{ConversationID: "not-a-number", Message: "hi"})
	require.NoError(t, err)
	assert.NotEmpty(t, garbage.ConversationID)

	list, err := convs.List(ctx, "bob")
	require.NoError(t, err)
	assert.Len(t, list, 3)
}
