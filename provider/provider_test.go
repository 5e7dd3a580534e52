package provider

import "testing"

func TestSplitSystem(t *testing.T) {
	system, turns := SplitSystem([]Message{
		{Role: RoleSystem, Content: "be brief"},
		{Role: RoleUser, Content: "hi"},
		{Role: RoleSystem, Content: "be kind"},
		{Role: RoleAssistant, Content: "hello"},
	})
	if system != "be brief\n\nbe kind" {
		t.Errorf("system = %q", system)
	}
	if len(turns) != 2 || turns[0].Content != "hi" || turns[1].Role != RoleAssistant {
		t.Errorf("turns = %+v", turns)
	}
}
