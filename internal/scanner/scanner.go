// Package scanner discovers project folders and watches them for changes.
// A project is a direct subdirectory of the root that carries an overview
// markdown file.
package scanner

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/rpggio/focusboard/internal/domain/project"
	"github.com/rpggio/focusboard/internal/markdown"
)

// overviewNames are tried in order inside each project folder. The folder
// name itself (as "<name>.md") is tried last.
var overviewNames = []string{"overview.md", "Overview.md", "OVERVIEW.md"}

// Scanner discovers projects under a root folder.
type Scanner struct {
	root   string
	logger *slog.Logger
}

// New creates a Scanner over the given root folder.
func New(root string, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{root: root, logger: logger}
}

// Scan walks the root's direct subdirectories and returns a Project for
// each one with an overview file, sorted by name. Folders that cannot be
// read are skipped with a warning; only a missing root is an error.
func (s *Scanner) Scan() ([]project.Project, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("reading projects root: %w", err)
	}

	var projects []project.Project
	for _, entry := range entries {
		if !entry.IsDir() || entry.Name()[0] == '.' {
			continue
		}

		dir := filepath.Join(s.root, entry.Name())
		overviewPath, ok := findOverview(dir, entry.Name())
		if !ok {
			continue
		}

		text, err := os.ReadFile(overviewPath)
		if err != nil {
			s.logger.Warn("skipping unreadable overview", "path", overviewPath, "error", err)
			continue
		}

		projects = append(projects, project.Project{
			ID:             project.DeriveID(dir),
			Name:           entry.Name(),
			Path:           dir,
			Tags:           markdown.ExtractTags(string(text)),
			CachedOverview: string(text),
		})
	}

	project.SortByName(projects)
	return projects, nil
}

// WriteOverview replaces a project's overview file on disk.
func (s *Scanner) WriteOverview(p project.Project, text string) error {
	path, ok := findOverview(p.Path, filepath.Base(p.Path))
	if !ok {
		path = filepath.Join(p.Path, "overview.md")
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("writing overview for %s: %w", p.Name, err)
	}
	return nil
}

func findOverview(dir, name string) (string, bool) {
	candidates := append(append([]string{}, overviewNames...), name+".md")
	for _, candidate := range candidates {
		path := filepath.Join(dir, candidate)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}
