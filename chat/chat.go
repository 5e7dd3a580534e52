// Package chat runs one chat exchange: it keeps the conversation record,
// hands the utterance to the interpreter and stores both sides of the turn.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/GoCodeAlone/todochat/conversation"
	"github.com/GoCodeAlone/todochat/interpreter"
)

// HistoryLimit is the number of prior messages handed to the interpreter.
const HistoryLimit = 5

// ErrEmptyMessage is returned for a blank chat message.
var ErrEmptyMessage = errors.New("message is required")

// FlexibleID is a conversation id that clients may send as a JSON string or
// number. The zero value means "start a new conversation".
type FlexibleID string

// UnmarshalJSON accepts a string, a number or null.
func (f *FlexibleID) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	switch {
	case s == "null" || s == "":
		*f = ""
	case strings.HasPrefix(s, `"`):
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*f = FlexibleID(strings.TrimSpace(str))
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("conversation_id: %w", err)
		}
		*f = FlexibleID(n.String())
	}
	return nil
}

// Int64 parses the id. ok is false for an empty or non-numeric id.
func (f FlexibleID) Int64() (id int64, ok bool) {
	id, err := strconv.ParseInt(string(f), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// Request is an inbound chat message.
type Request struct {
	ConversationID FlexibleID `json:"conversation_id,omitempty"`
	Message        string     `json:"message"`
}

// Response is the reply to a Request.
type Response struct {
	ConversationID string                        `json:"conversation_id"`
	Response       string                        `json:"response"`
	ToolCalls      []interpreter.OperationRecord `json:"tool_calls"`
}

// Conversations is the conversation persistence the service needs.
// *conversation.Store satisfies it.
type Conversations interface {
	Create(ctx context.Context, userID string) (*conversation.Conversation, error)
	Get(ctx context.Context, userID string, id int64) (*conversation.Conversation, error)
	Touch(ctx context.Context, userID string, id int64) error
	AppendMessage(ctx context.Context, m *conversation.Message) error
	Messages(ctx context.Context, userID string, conversationID int64, limit int) ([]*conversation.Message, error)
}

// Interpreter turns an utterance into a reply.
type Interpreter interface {
	Interpret(ctx context.Context, userID, text string, history []interpreter.Turn) interpreter.Result
}

// Service orchestrates chat exchanges.
type Service struct {
	conversations Conversations
	interp        Interpreter
	logger        *slog.Logger
}

// NewService creates a Service.
func NewService(conversations Conversations, interp Interpreter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{conversations: conversations, interp: interp, logger: logger}
}

// Handle processes one message from userID.
func (s *Service) Handle(ctx context.Context, userID string, req Request) (*Response, error) {
	text := strings.TrimSpace(req.Message)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	conv, err := s.resolveConversation(ctx, userID, req.ConversationID)
	if err != nil {
		return nil, err
	}

	prior, err := s.conversations.Messages(ctx, userID, conv.ID, HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	history := make([]interpreter.Turn, 0, len(prior))
	for _, m := range prior {
		history = append(history, interpreter.Turn{Role: string(m.Role), Content: m.Content})
	}

	inbound := &conversation.Message{ConversationID: conv.ID, UserID: userID, Role: conversation.RoleUser, Content: text}
	if err := s.conversations.AppendMessage(ctx, inbound); err != nil {
		return nil, fmt.Errorf("store message: %w", err)
	}

	res := s.interp.Interpret(ctx, userID, text, history)

	reply := &conversation.Message{ConversationID: conv.ID, UserID: userID, Role: conversation.RoleAssistant, Content: res.Reply}
	if err := s.conversations.AppendMessage(ctx, reply); err != nil {
		return nil, fmt.Errorf("store reply: %w", err)
	}

	s.logger.Info("chat exchange",
		slog.String("user_id", userID),
		slog.Int64("conversation_id", conv.ID),
		slog.String("intent", string(res.Intent)),
		slog.String("source", string(res.Source)),
		slog.Int("tool_calls", len(res.Operations)),
	)

	return &Response{
		ConversationID: strconv.FormatInt(conv.ID, 10),
		Response:       res.Reply,
		ToolCalls:      res.Operations,
	}, nil
}

// resolveConversation returns the user's conversation named by id, or a new
// one when id is absent, malformed or not owned by the user.
func (s *Service) resolveConversation(ctx context.Context, userID string, id FlexibleID) (*conversation.Conversation, error) {
	if n, ok := id.Int64(); ok {
		conv, err := s.conversations.Get(ctx, userID, n)
		switch {
		case err == nil:
			if err := s.conversations.Touch(ctx, userID, conv.ID); err != nil {
				return nil, fmt.Errorf("touch conversation: %w", err)
			}
			return conv, nil
		case errors.Is(err, conversation.ErrNotFound):
			s.logger.Debug("unknown conversation, starting a new one",
				slog.String("user_id", userID),
				slog.Int64("conversation_id", n),
			)
		default:
			return nil, fmt.Errorf("load conversation: %w", err)
		}
	}

	conv, err := s.conversations.Create(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	return conv, nil
}
