package interpreter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/cases"

	"github.com/GoCodeAlone/todochat/task"
)

const (
	replyFloor        = "I'm not sure how to help with that. You can ask me to add, list, complete, delete, or update tasks."
	replyCapabilities = "I can help you manage your tasks. You can ask me to: add tasks, list tasks, complete tasks, delete tasks, or update tasks. For example: 'Add a task to buy groceries' or 'Show my pending tasks'."
	replyNeedTitle    = "I couldn't identify the task title. Please specify what task you'd like to add."
	replyUpdateFormat = "I couldn't identify the task to update and its new details. Please use a format like 'change task \"old title\" to \"new title\"'."

	maxListed = 10
)

func (it *Interpreter) addTask(ctx context.Context, userID, text string) Result {
	title := extractAddTitle(text)
	if title == "" {
		return Result{Reply: replyNeedTitle}
	}

	params := map[string]any{"user_id": userID, "title": title}
	t, err := it.tasks.Create(ctx, userID, title, nil)
	if err != nil {
		return it.failed(userID, IntentAddTask, params, err)
	}
	op := it.succeeded(IntentAddTask, params, task.NewOutcome(task.StatusCreated, t))
	return Result{
		Reply:      fmt.Sprintf("Task '%s' has been created successfully.", t.Title),
		Operations: []OperationRecord{op},
	}
}

func (it *Interpreter) listTasks(ctx context.Context, userID, text string) Result {
	lower := strings.ToLower(text)
	var completed *bool
	switch {
	case strings.Contains(lower, "completed"):
		v := true
		completed = &v
	case strings.Contains(lower, "pending"), strings.Contains(lower, "incomplete"):
		v := false
		completed = &v
	}

	params := map[string]any{"user_id": userID, "completed": nil}
	if completed != nil {
		params["completed"] = *completed
	}
	tasks, err := it.tasks.List(ctx, userID, task.Filter{Completed: completed})
	if err != nil {
		return it.failed(userID, IntentListTasks, params, err)
	}
	if tasks == nil {
		tasks = []*task.Task{}
	}
	op := it.succeeded(IntentListTasks, params, tasks)
	return Result{Reply: formatList(tasks, completed), Operations: []OperationRecord{op}}
}

func formatList(tasks []*task.Task, completed *bool) string {
	kind := ""
	if completed != nil {
		kind = "pending "
		if *completed {
			kind = "completed "
		}
	}
	if len(tasks) == 0 {
		if completed == nil {
			return "You don't have any tasks yet."
		}
		return fmt.Sprintf("You don't have any %stasks.", kind)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Here are your %stasks:", kind)
	for i, t := range tasks {
		if i == maxListed {
			fmt.Fprintf(&b, "\n...and %d more.", len(tasks)-maxListed)
			break
		}
		fmt.Fprintf(&b, "\n- [%d] %s", t.ID, t.Title)
		if completed == nil && t.Completed {
			b.WriteString(" (completed)")
		}
	}
	return b.String()
}

func (it *Interpreter) completeTask(ctx context.Context, userID, text string) Result {
	ref := extractTarget(text, completeTailPattern)
	pending := false
	return it.mutateByRef(ctx, userID, IntentCompleteTask, ref, &pending,
		func(id int64) (*task.Task, error) { return it.tasks.Complete(ctx, userID, id) },
		task.StatusCompleted, "has been marked as completed")
}

func (it *Interpreter) deleteTask(ctx context.Context, userID, text string) Result {
	ref := extractTarget(text, deleteTailPattern)
	return it.mutateByRef(ctx, userID, IntentDeleteTask, ref, nil,
		func(id int64) (*task.Task, error) { return it.tasks.Delete(ctx, userID, id) },
		task.StatusDeleted, "has been deleted")
}

// mutateByRef resolves ref among the user's tasks (restricted by candidates)
// and applies op to the result.
func (it *Interpreter) mutateByRef(
	ctx context.Context, userID string, intent Intent, ref taskRef, candidates *bool,
	op func(id int64) (*task.Task, error), status, verb string,
) Result {
	verbName := strings.TrimSuffix(string(intent), "_task")
	if ref.empty() {
		return Result{Reply: fmt.Sprintf("I couldn't identify which task to %s. Please specify the task name or number.", verbName)}
	}

	id := ref.id
	label := fmt.Sprintf("#%d", ref.id)
	if ref.title != "" {
		t, res, ok := it.resolve(ctx, userID, intent, ref.title, candidates)
		if !ok {
			return res
		}
		if t == nil {
			return Result{Reply: fmt.Sprintf("I couldn't find a task named '%s'. Please check the task name.", ref.title)}
		}
		id = t.ID
		label = fmt.Sprintf("'%s'", t.Title)
	}

	params := map[string]any{"user_id": userID, "task_id": id}
	t, err := op(id)
	if err != nil {
		return it.failed(userID, intent, params, err)
	}
	rec := it.succeeded(intent, params, task.NewOutcome(status, t))
	return Result{
		Reply:      fmt.Sprintf("Task %s %s.", label, verb),
		Operations: []OperationRecord{rec},
	}
}

func (it *Interpreter) updateTask(ctx context.Context, userID, text string) Result {
	args, ok := extractUpdate(text)
	if !ok {
		return Result{Reply: replyUpdateFormat}
	}
	if args.newTitle == "" {
		return Result{Reply: "I couldn't identify the new title. Please say what the task should be renamed to."}
	}

	id := args.target.id
	label := fmt.Sprintf("#%d", id)
	if args.target.title != "" {
		t, res, ok := it.resolve(ctx, userID, IntentUpdateTask, args.target.title, nil)
		if !ok {
			return res
		}
		if t == nil {
			return Result{Reply: fmt.Sprintf("I couldn't find a task matching '%s'. Please check the task name.", args.target.title)}
		}
		id = t.ID
		label = fmt.Sprintf("'%s'", t.Title)
	}

	params := map[string]any{"user_id": userID, "task_id": id, "title": args.newTitle}
	newTitle := args.newTitle
	t, err := it.tasks.Update(ctx, userID, id, task.Patch{Title: &newTitle})
	if err != nil {
		return it.failed(userID, IntentUpdateTask, params, err)
	}
	rec := it.succeeded(IntentUpdateTask, params, task.NewOutcome(task.StatusUpdated, t))
	return Result{
		Reply:      fmt.Sprintf("Task %s has been updated to '%s'.", label, t.Title),
		Operations: []OperationRecord{rec},
	}
}

// resolve finds the user's task whose title equals title ignoring case, or
// failing that the first whose title contains it. A nil task with ok set
// means nothing matched. When ok is false, res carries the failure reply.
func (it *Interpreter) resolve(ctx context.Context, userID string, intent Intent, title string, completed *bool) (t *task.Task, res Result, ok bool) {
	tasks, err := it.tasks.List(ctx, userID, task.Filter{Completed: completed})
	if err != nil {
		params := map[string]any{"user_id": userID, "title": title}
		return nil, it.failed(userID, intent, params, err), false
	}

	fold := cases.Fold()
	want := fold.String(title)
	for _, candidate := range tasks {
		if fold.String(candidate.Title) == want {
			return candidate, Result{}, true
		}
	}
	for _, candidate := range tasks {
		if strings.Contains(fold.String(candidate.Title), want) {
			return candidate, Result{}, true
		}
	}
	return nil, Result{}, true
}

func (it *Interpreter) succeeded(intent Intent, params map[string]any, result any) OperationRecord {
	it.metrics.incOperation(intent, "ok")
	return OperationRecord{ToolName: string(intent), Parameters: params, Result: result}
}

// failed turns a store error into a reply. Not-found and validation errors
// get a guiding sentence; anything else is logged and answered with an
// apology. The attempted operation is recorded with its error.
func (it *Interpreter) failed(userID string, intent Intent, params map[string]any, err error) Result {
	it.metrics.incOperation(intent, "error")
	rec := OperationRecord{ToolName: string(intent), Parameters: params, Error: err.Error()}

	var reply string
	switch {
	case errors.Is(err, task.ErrNotFound):
		reply = "I couldn't find that task. Please check the task number."
		if id, ok := params["task_id"].(int64); ok {
			reply = fmt.Sprintf("I couldn't find task #%d. Please check the task number.", id)
		}
	case errors.Is(err, task.ErrValidation):
		reply = fmt.Sprintf("I couldn't save that task: %s.",
			strings.TrimPrefix(err.Error(), task.ErrValidation.Error()+": "))
	default:
		it.logger.Error("task operation failed",
			slog.String("user_id", userID),
			slog.String("tool", string(intent)),
			slog.Any("parameters", params),
			slog.Any("err", err),
		)
		reply = fmt.Sprintf("Sorry, I encountered an error processing your request: %v", err)
	}
	return Result{Reply: reply, Operations: []OperationRecord{rec}}
}
