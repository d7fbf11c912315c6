package project

import (
	"sort"
	"strings"
)

// Project represents a tracked project folder with its overview metadata
type Project struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Path           string   `json:"path"`
	Tags           []string `json:"tags,omitempty"`
	CachedOverview string   `json:"cached_overview,omitempty"`
}

// HasAnyTag reports whether the project carries at least one of the given
// tags. An empty wanted set matches every project.
func (p Project) HasAnyTag(wanted []string) bool {
	if len(wanted) == 0 {
		return true
	}
	for _, want := range wanted {
		for _, tag := range p.Tags {
			if strings.EqualFold(tag, want) {
				return true
			}
		}
	}
	return false
}

// SortByName orders projects by display name, case-insensitively.
// Path breaks ties so the order is stable across devices.
func SortByName(projects []Project) {
	sort.SliceStable(projects, func(i, j int) bool {
		a, b := strings.ToLower(projects[i].Name), strings.ToLower(projects[j].Name)
		if a != b {
			return a < b
		}
		return projects[i].Path < projects[j].Path
	})
}
