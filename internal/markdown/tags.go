package markdown

import (
	"regexp"
	"sort"
	"strings"
)

var tagPattern = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_-]*)`)

// ExtractTags returns the distinct #tags in the text, lowercased and
// sorted. Heading markers don't match: a tag needs a letter right after
// the hash.
func ExtractTags(text string) []string {
	seen := make(map[string]struct{})
	for _, match := range tagPattern.FindAllStringSubmatch(text, -1) {
		seen[strings.ToLower(match[1])] = struct{}{}
	}
	if len(seen) == 0 {
		return nil
	}

	tags := make([]string, 0, len(seen))
	for tag := range seen {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
