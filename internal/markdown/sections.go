package markdown

import (
	"fmt"
	"regexp"
	"strings"
)

// Section names used as anchors in overview files.
const (
	SectionCurrentStatus = "Current Status"
	SectionNextSteps     = "Next Steps"
	SectionProjectLog    = "Project Log"
)

func headingPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?m)^#{1,6}\s+` + regexp.QuoteMeta(name) + `\s*$`)
}

var anyHeading = regexp.MustCompile(`(?m)^#{1,6}\s+\S`)

// FindSection returns the body of the named section: everything between
// its heading line and the next heading (or end of text).
func FindSection(text, name string) (string, bool) {
	loc := headingPattern(name).FindStringIndex(text)
	if loc == nil {
		return "", false
	}

	start := loc[1]
	if start < len(text) && text[start] == '\n' {
		start++
	}

	rest := text[start:]
	if next := anyHeading.FindStringIndex(rest); next != nil {
		return rest[:next[0]], true
	}
	return rest, true
}

// ReplaceSection swaps the body of the named section in place, leaving
// the heading and everything around the section untouched. A missing
// section is appended at the end of the text.
func ReplaceSection(text, name, body string) string {
	loc := headingPattern(name).FindStringIndex(text)
	if loc == nil {
		if text != "" && !strings.HasSuffix(text, "\n") {
			text += "\n"
		}
		return fmt.Sprintf("%s\n## %s\n%s", text, name, body)
	}

	start := loc[1]
	if start < len(text) && text[start] == '\n' {
		start++
	}

	end := len(text)
	if next := anyHeading.FindStringIndex(text[start:]); next != nil {
		end = start + next[0]
	}

	return text[:start] + body + text[end:]
}
