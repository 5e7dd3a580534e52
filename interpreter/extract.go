package interpreter

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	addTriggerPattern = regexp.MustCompile(`(?i)\b(?:add|create|new)\s+task\b[\s:]*`)
	addPrefixPattern  = regexp.MustCompile(`(?i)^add\s+(?:an?\s+)?(?:new\s+)?(?:task\b)?[\s:]*`)
	leadingToPattern  = regexp.MustCompile(`(?i)^to\s+`)

	completeTailPattern = regexp.MustCompile(`(?is)\b(?:complete|finish|done)\s+task\b[\s:]*(.*)$`)
	deleteTailPattern   = regexp.MustCompile(`(?is)\b(?:delete|remove)\s+task\b[\s:]*(.*)$`)
	quotedTitlePattern  = regexp.MustCompile(`^(?:'([^']*)'|"([^"]*)")`)

	hashIDPattern = regexp.MustCompile(`#(\d+)`)
	taskIDPattern = regexp.MustCompile(`(?i)\btask\s+(\d+)\b`)
	bareIDPattern = regexp.MustCompile(`^#?\d+$`)

	updateColonPattern   = regexp.MustCompile(`(?is)\b(?:update|change|edit)\s+task\s+#?(\d+)\s*:\s*(.+?)\s*$`)
	updateQuotedPattern  = regexp.MustCompile(`(?is)\b(?:update|change|edit)\s+task\s+(?:'([^']*)'|"([^"]*)")\s+(?:to|as)\s+(.+?)\s*$`)
	updateGenericPattern = regexp.MustCompile(`(?is)\b(?:update|change|edit)\s+task\s+(.+?)\s+(?:to|as)\s+(.+?)\s*$`)
)

const (
	trailingPunct    = ".!?,;"
	surroundingQuote = `'"`
)

// taskRef addresses a task either by id or by (possibly partial) title.
// At most one field is set.
type taskRef struct {
	id    int64
	title string
}

func (r taskRef) empty() bool { return r.id == 0 && r.title == "" }

// extractAddTitle returns the title following an add trigger, keeping the
// user's casing.
func extractAddTitle(text string) string {
	var rest string
	if loc := addTriggerPattern.FindStringIndex(text); loc != nil {
		rest = text[loc[1]:]
	} else if loc := addPrefixPattern.FindStringIndex(text); loc != nil {
		rest = text[loc[1]:]
	}
	rest = strings.TrimSpace(rest)
	rest = leadingToPattern.ReplaceAllString(rest, "")
	return cleanTitle(rest)
}

// extractTarget resolves the task reference following a complete or delete
// trigger. Quoted text wins over trailing text; a numeric id is used only
// when no title text is present.
func extractTarget(text string, tail *regexp.Regexp) taskRef {
	var title string
	if m := tail.FindStringSubmatch(text); m != nil {
		rest := strings.TrimSpace(m[1])
		if q := quotedTitlePattern.FindStringSubmatch(rest); q != nil {
			title = strings.TrimSpace(q[1] + q[2])
		} else {
			title = cleanTitle(rest)
		}
	}
	if title != "" && !bareIDPattern.MatchString(title) {
		return taskRef{title: title}
	}
	if id, ok := extractID(text); ok {
		return taskRef{id: id}
	}
	return taskRef{}
}

// extractID finds a "#<digits>" or "task <digits>" reference.
func extractID(text string) (int64, bool) {
	for _, p := range []*regexp.Regexp{hashIDPattern, taskIDPattern} {
		if m := p.FindStringSubmatch(text); m != nil {
			id, err := strconv.ParseInt(m[1], 10, 64)
			if err == nil && id > 0 {
				return id, true
			}
		}
	}
	return 0, false
}

// updateArgs is the parsed form of an update command.
type updateArgs struct {
	target   taskRef
	newTitle string
}

// extractUpdate parses "update task <ref> to <new title>" and
// "update task #<id>: <new title>".
func extractUpdate(text string) (updateArgs, bool) {
	if m := updateColonPattern.FindStringSubmatch(text); m != nil {
		id, err := strconv.ParseInt(m[1], 10, 64)
		if err == nil && id > 0 {
			return updateArgs{target: taskRef{id: id}, newTitle: cleanTitle(m[2])}, true
		}
	}
	if m := updateQuotedPattern.FindStringSubmatch(text); m != nil {
		old := strings.TrimSpace(m[1] + m[2])
		if old != "" {
			return updateArgs{target: taskRef{title: old}, newTitle: cleanTitle(m[3])}, true
		}
	}
	if m := updateGenericPattern.FindStringSubmatch(text); m != nil {
		old := cleanTitle(m[1])
		args := updateArgs{newTitle: cleanTitle(m[2])}
		if bareIDPattern.MatchString(old) {
			id, err := strconv.ParseInt(strings.TrimPrefix(old, "#"), 10, 64)
			if err != nil || id <= 0 {
				return updateArgs{}, false
			}
			args.target = taskRef{id: id}
		} else {
			args.target = taskRef{title: old}
		}
		if args.target.empty() {
			return updateArgs{}, false
		}
		return args, true
	}
	return updateArgs{}, false
}

// cleanTitle trims whitespace, trailing sentence punctuation and surrounding
// quotes.
func cleanTitle(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, trailingPunct)
	s = strings.Trim(s, surroundingQuote)
	return strings.TrimSpace(s)
}
