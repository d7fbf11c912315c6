package markdown

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const sampleOverview = `# Rebuild the garden shed

Some context about the project. #home #diy

## Current Status

Waiting on lumber delivery.

## Next Steps

- [ ] Measure the foundation
- [x] Order lumber (2026-08-12)
- [X] Clear the site
- not a checklist line

## Project Log

2026-08-10: started planning.
`

func TestExtractChecklist(t *testing.T) {
	items := ExtractChecklist(sampleOverview)
	require.Len(t, items, 3)

	require.Equal(t, "Measure the foundation", items[0].Text)
	require.False(t, items[0].Completed)
	require.Nil(t, items[0].CompletedAt)

	require.Equal(t, "Order lumber", items[1].Text)
	require.True(t, items[1].Completed)
	require.NotNil(t, items[1].CompletedAt)
	require.Equal(t, time.Date(2026, 8, 12, 0, 0, 0, 0, time.UTC), *items[1].CompletedAt)

	// Capital X checkbox, no date suffix.
	require.Equal(t, "Clear the site", items[2].Text)
	require.True(t, items[2].Completed)
	require.Nil(t, items[2].CompletedAt)
}

func TestExtractChecklistEmptyAndPlainText(t *testing.T) {
	require.Empty(t, ExtractChecklist(""))
	require.Empty(t, ExtractChecklist("just prose\nwith lines\n"))
}

func TestSetItemCompleted(t *testing.T) {
	when := time.Date(2026, 8, 31, 14, 0, 0, 0, time.UTC)

	updated, found := SetItemCompleted(sampleOverview, "Measure the foundation", true, when)
	require.True(t, found)
	require.Contains(t, updated, "- [x] Measure the foundation (2026-08-31)")
	require.NotContains(t, updated, "- [ ] Measure the foundation")

	// The rest of the document is untouched.
	require.Contains(t, updated, "Waiting on lumber delivery.")
	require.Contains(t, updated, "2026-08-10: started planning.")
}

func TestSetItemCompletedUncheckStripsDate(t *testing.T) {
	updated, found := SetItemCompleted(sampleOverview, "Order lumber", false, time.Time{})
	require.True(t, found)
	require.Contains(t, updated, "- [ ] Order lumber")
	require.NotContains(t, updated, "(2026-08-12)")
}

func TestSetItemCompletedNoMatch(t *testing.T) {
	updated, found := SetItemCompleted(sampleOverview, "no such item", true, time.Now())
	require.False(t, found)
	require.Equal(t, sampleOverview, updated)
}

func TestAppendChecklistItem(t *testing.T) {
	updated := AppendChecklistItem(sampleOverview, SectionNextSteps, "Paint the door")
	items := ExtractChecklist(updated)
	require.Len(t, items, 4)
	require.Equal(t, "Paint the door", items[3].Text)

	// New item lands inside Next Steps, before Project Log.
	body, ok := FindSection(updated, SectionNextSteps)
	require.True(t, ok)
	require.Contains(t, body, "- [ ] Paint the door")
}

func TestAppendChecklistItemMissingSection(t *testing.T) {
	updated := AppendChecklistItem("just prose\n", SectionNextSteps, "First task")
	require.Contains(t, updated, "- [ ] First task")
	items := ExtractChecklist(updated)
	require.Len(t, items, 1)
}
