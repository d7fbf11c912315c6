// Package markdown parses and edits project overview files: checklist
// extraction for the focus board, targeted section replacement, and tag
// scanning. Edits are line-oriented and touch only the lines they target,
// leaving the rest of the user's text byte for byte intact.
package markdown

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rpggio/focusboard/internal/domain/focus"
)

const completionDateLayout = "2006-01-02"

var (
	checklistLine  = regexp.MustCompile(`^- \[([ xX])\] (.+)$`)
	completionDate = regexp.MustCompile(`^(.*?)\s+\((\d{4}-\d{2}-\d{2})\)$`)
)

// ExtractChecklist returns the checklist items in the text, in order.
// Recognized lines are "- [ ] text", "- [x] text" and "- [X] text", with
// an optional trailing " (YYYY-MM-DD)" completion date on completed lines.
func ExtractChecklist(text string) []focus.ChecklistItem {
	var items []focus.ChecklistItem
	for _, line := range strings.Split(text, "\n") {
		match := checklistLine.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if match == nil {
			continue
		}

		item := focus.ChecklistItem{
			Text:      strings.TrimSpace(match[2]),
			Completed: match[1] != " ",
		}
		if item.Completed {
			if dm := completionDate.FindStringSubmatch(item.Text); dm != nil {
				if when, err := time.Parse(completionDateLayout, dm[2]); err == nil {
					item.Text = strings.TrimSpace(dm[1])
					item.CompletedAt = &when
				}
			}
		}
		items = append(items, item)
	}
	return items
}

// SetItemCompleted rewrites the checklist line whose text matches
// itemText. Completion stamps the date in parentheses; un-completion
// strips it. Returns the updated text and whether a line matched.
func SetItemCompleted(text, itemText string, completed bool, date time.Time) (string, bool) {
	lines := strings.Split(text, "\n")
	found := false
	for i, line := range lines {
		match := checklistLine.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if match == nil {
			continue
		}
		lineText := strings.TrimSpace(match[2])
		if dm := completionDate.FindStringSubmatch(lineText); dm != nil {
			lineText = strings.TrimSpace(dm[1])
		}
		if lineText != itemText {
			continue
		}

		if completed {
			lines[i] = fmt.Sprintf("- [x] %s (%s)", itemText, date.Format(completionDateLayout))
		} else {
			lines[i] = fmt.Sprintf("- [ ] %s", itemText)
		}
		found = true
		break
	}
	return strings.Join(lines, "\n"), found
}

// AppendChecklistItem adds an unchecked item at the end of the named
// section, or at the end of the document when the section is missing.
func AppendChecklistItem(text, section, itemText string) string {
	entry := fmt.Sprintf("- [ ] %s", itemText)

	body, ok := FindSection(text, section)
	if !ok {
		if text != "" && !strings.HasSuffix(text, "\n") {
			text += "\n"
		}
		return text + entry + "\n"
	}

	updated := strings.TrimRight(body, "\n")
	if updated == "" {
		updated = entry
	} else {
		updated += "\n" + entry
	}
	return ReplaceSection(text, section, updated+"\n")
}
