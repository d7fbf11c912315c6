package markdown

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFindSection(t *testing.T) {
	body, ok := FindSection(sampleOverview, SectionCurrentStatus)
	require.True(t, ok)
	require.Contains(t, body, "Waiting on lumber delivery.")
	require.NotContains(t, body, "Measure the foundation")

	// Last section runs to the end of the text.
	body, ok = FindSection(sampleOverview, SectionProjectLog)
	require.True(t, ok)
	require.Contains(t, body, "started planning")

	_, ok = FindSection(sampleOverview, "Budget")
	require.False(t, ok)
}

func TestFindSectionAnyHeadingLevel(t *testing.T) {
	text := "### Next Steps\n- [ ] one\n#### Deep\nstuff\n"
	body, ok := FindSection(text, "Next Steps")
	require.True(t, ok)
	require.Equal(t, "- [ ] one\n", body)
}

func TestReplaceSection(t *testing.T) {
	updated := ReplaceSection(sampleOverview, SectionCurrentStatus, "Lumber arrived.\n\n")
	require.Contains(t, updated, "Lumber arrived.")
	require.NotContains(t, updated, "Waiting on lumber delivery.")

	// Surrounding sections are intact.
	require.Contains(t, updated, "- [ ] Measure the foundation")
	require.Contains(t, updated, "## Project Log")
}

func TestReplaceSectionMissingAppends(t *testing.T) {
	updated := ReplaceSection("intro text", "Next Steps", "- [ ] begin\n")
	require.Contains(t, updated, "## Next Steps")
	require.Contains(t, updated, "- [ ] begin")
	require.Contains(t, updated, "intro text")
}

func TestExtractTags(t *testing.T) {
	require.Equal(t, []string{"diy", "home"}, ExtractTags(sampleOverview))
	require.Nil(t, ExtractTags("no tags here"))

	// Headings are not tags, case folds, duplicates collapse.
	text := "# Title\n#Client work and more #client stuff #side-project\n"
	require.Equal(t, []string{"client", "side-project"}, ExtractTags(text))
}
