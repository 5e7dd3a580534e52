package interpreter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/GoCodeAlone/todochat/provider"
)

const replyPrefix = "REPLY:"

const oracleInstruction = `You translate a user's request about their todo list into exactly one command.

Supported commands:
Add task: <title>
List tasks
List completed tasks
List pending tasks
Complete task #<id>
Complete task '<title>'
Delete task #<id>
Delete task '<title>'
Update task #<id> to '<new title>'
Update task '<old title>' to '<new title>'

Address a task by its number when the user gives one; otherwise use its title in single quotes.
If the request is not one of these commands, answer with "REPLY: " followed by a short helpful sentence.
Answer with the single command line only, without explanation.`

// viaOracle asks the oracle to restate text as a canonical command and
// executes it. ok is false when the caller should fall back to the rules.
func (it *Interpreter) viaOracle(ctx context.Context, userID, text string, history []Turn) (res Result, ok bool) {
	octx, cancel := context.WithTimeout(ctx, it.oracleCfg.Timeout)
	defer cancel()

	messages := []provider.Message{
		{Role: provider.RoleSystem, Content: oracleInstruction},
		{Role: provider.RoleUser, Content: buildOraclePrompt(text, history, it.oracleCfg.HistoryTurns)},
	}
	opts := provider.Options{MaxTokens: it.oracleCfg.MaxTokens, Temperature: it.oracleCfg.Temperature}

	start := time.Now()
	resp, err := it.oracle.Chat(octx, messages, opts)
	elapsed := time.Since(start)
	if err != nil {
		it.metrics.observeOracle("error", elapsed)
		it.logger.Warn("oracle request failed, using rules",
			slog.String("user_id", userID),
			slog.String("provider", it.oracle.Name()),
			slog.Duration("elapsed", elapsed),
			slog.Any("err", err),
		)
		return Result{}, false
	}

	line := firstLine(resp.Content)
	if prose, isReply := cutReply(line); isReply {
		if prose == "" {
			it.metrics.observeOracle("unparsed", elapsed)
			return Result{}, false
		}
		it.metrics.observeOracle("reply", elapsed)
		return Result{Reply: prose, Intent: IntentUnknown, Source: SourceOracle}, true
	}

	r, matched := match(line)
	if !matched {
		it.metrics.observeOracle("unparsed", elapsed)
		it.logger.Debug("oracle answer not a command, using rules",
			slog.String("user_id", userID),
			slog.String("answer", line),
		)
		return Result{}, false
	}

	it.metrics.observeOracle("success", elapsed)
	// The timeout bounds the oracle round-trip only, not the store calls.
	res = r.handle(it, ctx, userID, line)
	res.Intent = r.intent
	res.Source = SourceOracle
	return res, true
}

// buildOraclePrompt renders the most recent turns of history followed by the
// current request.
func buildOraclePrompt(text string, history []Turn, turns int) string {
	if len(history) > turns {
		history = history[len(history)-turns:]
	}
	var b strings.Builder
	if len(history) > 0 {
		b.WriteString("Previous conversation:\n")
		for _, t := range history {
			fmt.Fprintf(&b, "%s: %s\n", t.Role, t.Content)
		}
		b.WriteString("\n")
	}
	b.WriteString("User's current request:\n")
	b.WriteString(text)
	return b.String()
}

// firstLine returns the first non-empty line of s with code fences and
// surrounding backticks removed.
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "```") {
			continue
		}
		line = strings.TrimSpace(strings.Trim(line, "`"))
		if line != "" {
			return line
		}
	}
	return ""
}

func cutReply(line string) (string, bool) {
	if len(line) < len(replyPrefix) || !strings.EqualFold(line[:len(replyPrefix)], replyPrefix) {
		return "", false
	}
	return strings.TrimSpace(line[len(replyPrefix):]), true
}
