package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `focusboard keeps a small set of projects "in focus" and syncs the board across devices.

Core concepts (keep this mental model small):
- Project: a folder with an overview markdown file. Discovered by scanning, identified by a stable ID derived from its path.
- Focus board: at most a handful of Active projects, each occupying a slot. Slots may require tags.
- Task: a checklist line from an Active project's overview, surfaced on a todo / in_progress / completed board.
- Replacement prompt: raised when an Active project runs out of open tasks and an Inactive candidate exists.
- Sync: the board state merges with a shared record store in the background; you rarely need to think about it.

Rules of engagement (default workflow):
1) Orient: call get_focus_board to see what is in focus and which tasks are open.
2) Browse: list_projects shows everything tracked, including Inactive projects.
3) Focus: activate_project / deactivate_project change what is on the board. Activation can fail when the board is full or no slot's tags match.
4) Work: add_task, update_task_status, update_task_text. Completing a task writes the checkbox back into the project's overview file.
5) Prompts: when get_focus_board reports a pending_replacement, answer it with replace_project or keep_project.
6) Sync: get_sync_status for health; force_sync only when you suspect divergence. rescan re-reads the projects folder.

Transport notes:
- HTTP: pass a device id via the X-Device-Id header so log traffic is attributable.
- Stdio: pass it via _meta.device_id when supported.

Docs:
- focusboard://docs/index (what to read when)
- focusboard://docs/overview-format (how project overview files are structured)
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "focusboard://docs/index",
		Name:        "docs_index",
		Title:       "focusboard docs index",
		Description: "Entry point for agent-facing docs: what exists and what to read.",
		Content: `# focusboard: Agent Docs Index

## Quick start (no deep docs)

1. ` + "`get_focus_board`" + ` to orient (active projects, open tasks, pending prompts).
2. ` + "`list_projects`" + ` to see the full tracked set.
3. ` + "`activate_project`" + ` / ` + "`deactivate_project`" + ` to change focus.
4. Work tasks via ` + "`add_task`" + ` / ` + "`update_task_status`" + ` / ` + "`update_task_text`" + `.
5. Answer replacement prompts with ` + "`replace_project`" + ` or ` + "`keep_project`" + `.

## Docs (read on demand)

- ` + "`focusboard://docs/overview-format`" + ` — how overview files map to tasks and tags.

## Intentional limitations

- Routine sync never deletes remote records; only explicit focus changes force-replace them.
- Tasks are rebuilt from checklists on every rescan, so edits to raw checklist text can retire tasks.
`,
	},
	{
		URI:         "focusboard://docs/overview-format",
		Name:        "docs_overview_format",
		Title:       "Overview file format",
		Description: "How project overview markdown maps onto tags, checklists, and board tasks.",
		Content: `# Overview file format

Each project folder carries one overview file (` + "`overview.md`" + ` or ` + "`<folder-name>.md`" + `).

## Tags

Hashtags anywhere in the text (` + "`#client`" + `, ` + "`#side-project`" + `) become the project's tags.
Tags gate slot assignment: a slot with required tags only accepts projects carrying at least one of them.

## Checklists

Lines of the form ` + "`- [ ] task text`" + ` under any section become board tasks for Active projects.
A checked line ` + "`- [x] task text (2026-01-15)`" + ` is a completed task; the date suffix records when.
Completing a task on the board writes the checkbox and date back into this file.

## Sections

` + "`## Next Steps`" + ` is where ` + "`add_task`" + ` appends new items. ` + "`## Current Status`" + ` and ` + "`## Project Log`" + ` are free-form.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		doc := doc

		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
