package markdown

import (
	"fmt"
	"strings"
	"time"
)

// Editor implements focus.OverviewEditor over the checklist helpers. New
// items land in the configured section (Next Steps by default).
type Editor struct {
	Section string
}

// NewEditor creates an Editor appending new items to the Next Steps section.
func NewEditor() *Editor {
	return &Editor{Section: SectionNextSteps}
}

func (e *Editor) AppendItem(text, itemText string) string {
	return AppendChecklistItem(text, e.Section, itemText)
}

func (e *Editor) SetItemCompleted(text, itemText string, completed bool, when time.Time) (string, bool) {
	return SetItemCompleted(text, itemText, completed, when)
}

func (e *Editor) RenameItem(text, oldText, newText string) (string, bool) {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		match := checklistLine.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if match == nil {
			continue
		}
		lineText := strings.TrimSpace(match[2])
		suffix := ""
		if dm := completionDate.FindStringSubmatch(lineText); dm != nil {
			lineText = strings.TrimSpace(dm[1])
			suffix = fmt.Sprintf(" (%s)", dm[2])
		}
		if lineText != oldText {
			continue
		}
		lines[i] = fmt.Sprintf("- [%s] %s%s", match[1], newText, suffix)
		return strings.Join(lines, "\n"), true
	}
	return text, false
}
