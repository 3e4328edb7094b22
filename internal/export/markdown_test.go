package export

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casefile/internal/models"
)

func strptr(s string) *string { return &s }

func TestMarkdownHeaderAndPeople(t *testing.T) {
	c := &models.Case{
		Title:          "The missing ledger",
		Description:    strptr("Financial records disappeared in March."),
		PeopleInvolved: strptr("A. Smith, B. Jones"),
		Status:         models.CaseStatusActive,
	}
	out := Markdown(c, nil, nil)

	assert.True(t, strings.HasPrefix(out, "# The missing ledger\n"))
	assert.Contains(t, out, "Financial records disappeared in March.")
	assert.Contains(t, out, "## People involved\n\nA. Smith, B. Jones")
	assert.Contains(t, out, "**Status:** active")
}

func TestMarkdownMissingPeoplePlaceholder(t *testing.T) {
	c := &models.Case{Title: "bare", Status: models.CaseStatusDraft}
	out := Markdown(c, nil, nil)
	assert.Contains(t, out, "_Not provided._")
}

func TestMarkdownTimelineEntry(t *testing.T) {
	captured := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	c := &models.Case{Title: "t", Status: models.CaseStatusDraft}
	evidence := []models.Evidence{
		{
			Type:           models.EvidenceTypeAudio,
			FileName:       strptr("call.mp3"),
			CapturedAt:     &captured,
			Notes:          strptr("late night call"),
			Tags:           []models.Tag{{Name: "threats"}},
			TranscriptText: strptr("you will regret this"),
		},
		{
			Type:      models.EvidenceTypeImage,
			FileName:  strptr("receipt.jpg"),
			CreatedAt: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
			OCRText:   strptr("TOTAL 42.00"),
		},
	}
	out := Markdown(c, evidence, nil)

	assert.Contains(t, out, "**2025-03-14T09:30:00Z** — Audio — call.mp3 [threats]")
	assert.Contains(t, out, "  - late night call")
	assert.Contains(t, out, "  - Transcript: you will regret this")
	assert.Contains(t, out, "**2025-04-01T00:00:00Z** — Image — receipt.jpg")
	assert.Contains(t, out, "  - OCR: TOTAL 42.00")
}

func TestMarkdownSnippetTruncation(t *testing.T) {
	long := strings.Repeat("a", 250)
	c := &models.Case{Title: "t", Status: models.CaseStatusDraft}
	evidence := []models.Evidence{{
		Type:           models.EvidenceTypeAudio,
		TranscriptText: &long,
	}}
	out := Markdown(c, evidence, nil)
	assert.Contains(t, out, strings.Repeat("a", 200)+"…")
	assert.NotContains(t, out, strings.Repeat("a", 201))
}

func TestMarkdownFactGrouping(t *testing.T) {
	c := &models.Case{Title: "t", Status: models.CaseStatusDraft}
	tagged := models.Evidence{
		FileName: strptr("doc.txt"),
		Tags:     []models.Tag{{Name: "money"}, {Name: "travel"}},
	}
	facts := []models.Fact{
		{Title: "paid in cash", Evidence: []models.Evidence{tagged}},
		{Title: "no link", Description: strptr("stands alone")},
	}
	out := Markdown(c, nil, facts)

	moneyIdx := strings.Index(out, "### money, travel")
	untaggedIdx := strings.Index(out, "### Untagged")
	require.GreaterOrEqual(t, moneyIdx, 0)
	require.GreaterOrEqual(t, untaggedIdx, 0)
	assert.Less(t, moneyIdx, untaggedIdx, "group headings are sorted")
	assert.Contains(t, out, "- **paid in cash**\n  Evidence: doc.txt")
	assert.Contains(t, out, "- **no link**\n  stands alone")
}
