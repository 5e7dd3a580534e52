// Package interpreter turns a free-text chat utterance into task operations.
//
// An utterance is first offered to an optional generation oracle, which is
// asked to restate it as a single canonical command. Whatever the oracle
// returns is executed by the same rule table that handles utterances
// directly, so a reply never claims an action that did not happen. Any
// oracle failure falls back to the rules on the original text without retry.
package interpreter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/GoCodeAlone/todochat/provider"
	"github.com/GoCodeAlone/todochat/task"
)

// Intent is the command category chosen for an utterance. Intents other than
// IntentUnknown double as the tool names reported in operation records.
type Intent string

const (
	IntentAddTask      Intent = "add_task"
	IntentListTasks    Intent = "list_tasks"
	IntentCompleteTask Intent = "complete_task"
	IntentDeleteTask   Intent = "delete_task"
	IntentUpdateTask   Intent = "update_task"
	IntentUnknown      Intent = "unknown"
)

// Source records which path produced a Result.
type Source string

const (
	SourceRules  Source = "rules"
	SourceOracle Source = "oracle"
)

// Turn is one prior message of the conversation.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// OperationRecord describes one task store call made while interpreting an
// utterance. Error is set when the call failed.
type OperationRecord struct {
	ToolName   string         `json:"tool_name"`
	Parameters map[string]any `json:"parameters"`
	Result     any            `json:"result,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// Result is the outcome of a single Interpret call. Reply is never empty.
type Result struct {
	Reply      string            `json:"response"`
	Operations []OperationRecord `json:"tool_calls"`
	Intent     Intent            `json:"intent"`
	Source     Source            `json:"source"`
}

// TaskStore is the user-scoped task API the interpreter drives.
// *task.Service satisfies it.
type TaskStore interface {
	Create(ctx context.Context, userID, title string, description *string) (*task.Task, error)
	List(ctx context.Context, userID string, filter task.Filter) ([]*task.Task, error)
	Complete(ctx context.Context, userID string, id int64) (*task.Task, error)
	Delete(ctx context.Context, userID string, id int64) (*task.Task, error)
	Update(ctx context.Context, userID string, id int64, p task.Patch) (*task.Task, error)
}

// OracleSettings bounds each oracle call.
type OracleSettings struct {
	MaxTokens    int
	Temperature  float32
	Timeout      time.Duration
	HistoryTurns int
}

// DefaultOracleSettings returns the settings used when none are given.
func DefaultOracleSettings() OracleSettings {
	return OracleSettings{
		MaxTokens:    500,
		Temperature:  0.1,
		Timeout:      5 * time.Second,
		HistoryTurns: 5,
	}
}

// Interpreter maps utterances to task operations. It holds no per-call state
// and is safe for concurrent use.
type Interpreter struct {
	tasks     TaskStore
	oracle    provider.Provider
	oracleCfg OracleSettings
	logger    *slog.Logger
	metrics   *metricsProvider
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithOracle enables the generation oracle. A nil provider leaves it
// disabled.
func WithOracle(p provider.Provider, settings OracleSettings) Option {
	return func(it *Interpreter) {
		it.oracle = p
		it.oracleCfg = settings
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(it *Interpreter) {
		if logger != nil {
			it.logger = logger
		}
	}
}

// WithMetrics registers interpreter metrics on registry.
func WithMetrics(registry *prometheus.Registry) Option {
	return func(it *Interpreter) {
		it.metrics = newMetricsProvider(registry)
	}
}

// New creates an Interpreter over tasks.
func New(tasks TaskStore, opts ...Option) *Interpreter {
	it := &Interpreter{
		tasks:     tasks,
		oracleCfg: DefaultOracleSettings(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(it)
	}
	defaults := DefaultOracleSettings()
	if it.oracleCfg.MaxTokens <= 0 {
		it.oracleCfg.MaxTokens = defaults.MaxTokens
	}
	if it.oracleCfg.Timeout <= 0 {
		it.oracleCfg.Timeout = defaults.Timeout
	}
	if it.oracleCfg.HistoryTurns <= 0 {
		it.oracleCfg.HistoryTurns = defaults.HistoryTurns
	}
	return it
}

// OracleEnabled reports whether an oracle is configured.
func (it *Interpreter) OracleEnabled() bool { return it.oracle != nil }

// Interpret handles one utterance for userID. history holds the most recent
// prior turns, oldest first. It never fails: every problem becomes reply
// text.
func (it *Interpreter) Interpret(ctx context.Context, userID, text string, history []Turn) Result {
	text = strings.TrimSpace(text)

	var res Result
	handled := false
	if it.oracle != nil && !hasQuotedText(text) {
		res, handled = it.viaOracle(ctx, userID, text, history)
	}
	if !handled {
		res = it.dispatch(ctx, userID, text)
		res.Source = SourceRules
	}

	if strings.TrimSpace(res.Reply) == "" {
		res.Reply = replyFloor
	}
	if res.Operations == nil {
		res.Operations = []OperationRecord{}
	}

	it.metrics.incIntent(res.Intent, res.Source)
	it.logger.Info("interpreted utterance",
		slog.String("user_id", userID),
		slog.String("intent", string(res.Intent)),
		slog.String("source", string(res.Source)),
		slog.Int("operations", len(res.Operations)),
	)
	return res
}

// dispatch runs the first rule matching text.
func (it *Interpreter) dispatch(ctx context.Context, userID, text string) Result {
	r, ok := match(text)
	if !ok {
		return Result{Reply: replyCapabilities, Intent: IntentUnknown}
	}
	res := r.handle(it, ctx, userID, text)
	res.Intent = r.intent
	return res
}
