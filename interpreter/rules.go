package interpreter

import (
	"context"
	"regexp"
	"strings"
)

// rule pairs an intent trigger with the handler that executes it.
type rule struct {
	intent Intent
	match  func(lower string) bool
	handle func(it *Interpreter, ctx context.Context, userID, text string) Result
}

var (
	quotedPattern = regexp.MustCompile(`'[^']*'|"[^"]*"`)

	// listPattern accepts phrasings like "show my pending tasks" that the
	// plain substring triggers miss.
	listPattern = regexp.MustCompile(`\b(?:show|list|view|display)(?:\s+(?:me|my|all|the|completed|complete|pending|incomplete|open|done)){0,3}\s+tasks\b`)
)

// rules is evaluated in order; the first match wins.
var rules = []rule{
	{
		intent: IntentAddTask,
		match: func(s string) bool {
			return containsAny(s, "add task", "create task", "new task") || strings.HasPrefix(s, "add ")
		},
		handle: (*Interpreter).addTask,
	},
	{
		intent: IntentListTasks,
		match: func(s string) bool {
			return containsAny(s, "show my tasks", "list tasks", "my tasks") || listPattern.MatchString(s)
		},
		handle: (*Interpreter).listTasks,
	},
	{
		intent: IntentCompleteTask,
		match: func(s string) bool {
			return containsAny(s, "complete task", "finish task", "done task")
		},
		handle: (*Interpreter).completeTask,
	},
	{
		intent: IntentDeleteTask,
		match: func(s string) bool {
			return containsAny(s, "delete task", "remove task")
		},
		handle: (*Interpreter).deleteTask,
	},
	{
		intent: IntentUpdateTask,
		match: func(s string) bool {
			return containsAny(s, "update task", "change task", "edit task")
		},
		handle: (*Interpreter).updateTask,
	},
}

// match returns the first rule triggered by text.
func match(text string) (rule, bool) {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, r := range rules {
		if r.match(lower) {
			return r, true
		}
	}
	return rule{}, false
}

// Classify returns the intent the rule table assigns to text.
func Classify(text string) Intent {
	r, ok := match(text)
	if !ok {
		return IntentUnknown
	}
	return r.intent
}

func hasQuotedText(text string) bool {
	return quotedPattern.MatchString(text)
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
