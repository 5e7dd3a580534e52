package interpreter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		text string
		want Intent
	}{
		{"Add a task to buy groceries", IntentAddTask},
		{"please create task renew passport", IntentAddTask},
		{"Show my pending tasks", IntentListTasks},
		{"show all tasks", IntentListTasks},
		{"display tasks", IntentListTasks},
		{"list tasks", IntentListTasks},
		{"what are my tasks?", IntentListTasks},
		{"Finish task 'report'", IntentCompleteTask},
		{"Remove task 3", IntentDeleteTask},
		{"edit task 4 to call grandma", IntentUpdateTask},
		{"hello there", IntentUnknown},
		{"", IntentUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.text))
		})
	}
}

func TestExtractAddTitle(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"add task buy milk", "buy milk"},
		{"Add a task to buy groceries", "buy groceries"},
		{"add task: Call Mom.", "Call Mom"},
		{"Please create task renew passport", "renew passport"},
		{"add new task 'Pay rent'", "Pay rent"},
		{"add a dentist appointment", "dentist appointment"},
		{"add an Oil change", "Oil change"},
		{"add task", ""},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, extractAddTitle(tt.text))
		})
	}
}

func TestExtractTarget(t *testing.T) {
	tests := []struct {
		text string
		want taskRef
	}{
		{"complete task 'Buy milk'", taskRef{title: "Buy milk"}},
		{`complete task "Pay rent" now`, taskRef{title: "Pay rent"}},
		{"complete task #7", taskRef{id: 7}},
		{"please finish task 12", taskRef{id: 12}},
		{"complete task Walk the dog!", taskRef{title: "Walk the dog"}},
		{"complete task", taskRef{}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, extractTarget(tt.text, completeTailPattern))
		})
	}

	assert.Equal(t, taskRef{title: "Call dad"}, extractTarget("delete task Call dad.", deleteTailPattern))
	assert.Equal(t, taskRef{id: 3}, extractTarget("remove task #3", deleteTailPattern))
}

func TestExtractUpdate(t *testing.T) {
	tests := []struct {
		text   string
		want   updateArgs
		wantOK bool
	}{
		{"update task 'Buy milk' to 'Buy oat milk'", updateArgs{target: taskRef{title: "Buy milk"}, newTitle: "Buy oat milk"}, true},
		{`change task "old" as "new"`, updateArgs{target: taskRef{title: "old"}, newTitle: "new"}, true},
		{"change task #3: Walk the dog", updateArgs{target: taskRef{id: 3}, newTitle: "Walk the dog"}, true},
		{"edit task 4 to Call grandma", updateArgs{target: taskRef{id: 4}, newTitle: "Call grandma"}, true},
		{"update task groceries to buy vegetables", updateArgs{target: taskRef{title: "groceries"}, newTitle: "buy vegetables"}, true},
		{"update task", updateArgs{}, false},
		{"update task something", updateArgs{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := extractUpdate(tt.text)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "List tasks", firstLine("\n  `List tasks`  \nextra"))
	assert.Equal(t, "Add task: x", firstLine("```text\nAdd task: x\n```"))
	assert.Equal(t, "", firstLine("  \n "))
}
