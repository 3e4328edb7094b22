package export

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"casefile/internal/models"
)

const snippetLen = 200

// Markdown renders a case to its Markdown summary: header, evidence timeline,
// then facts grouped by the tag sets of their linked evidence. Evidence must
// arrive in timeline order with tags preloaded; facts with their evidence and
// its tags preloaded.
func Markdown(c *models.Case, evidence []models.Evidence, facts []models.Fact) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", c.Title)
	if c.Description != nil && *c.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", *c.Description)
	}
	b.WriteString("## People involved\n\n")
	if c.PeopleInvolved != nil && *c.PeopleInvolved != "" {
		fmt.Fprintf(&b, "%s\n\n", *c.PeopleInvolved)
	} else {
		b.WriteString("_Not provided._\n\n")
	}
	fmt.Fprintf(&b, "**Status:** %s\n\n---\n\n", c.Status)

	b.WriteString("## Timeline\n\n")
	for _, e := range evidence {
		writeTimelineEntry(&b, e)
	}

	b.WriteString("---\n\n## Facts\n\n")
	writeFactGroups(&b, facts)

	return b.String()
}

func writeTimelineEntry(b *strings.Builder, e models.Evidence) {
	at := e.CreatedAt
	if e.CapturedAt != nil {
		at = *e.CapturedAt
	}
	label := typeLabel(e.Type)
	line := fmt.Sprintf("- **%s** — %s", at.UTC().Format(time.RFC3339), label)
	if e.FileName != nil && *e.FileName != "" {
		line += " — " + *e.FileName
	}
	if len(e.Tags) > 0 {
		names := make([]string, 0, len(e.Tags))
		for _, t := range e.Tags {
			names = append(names, t.Name)
		}
		line += " [" + strings.Join(names, ", ") + "]"
	}
	b.WriteString(line + "\n")
	if e.Notes != nil && *e.Notes != "" {
		fmt.Fprintf(b, "  - %s\n", *e.Notes)
	}
	if e.Type == models.EvidenceTypeAudio && e.TranscriptText != nil && *e.TranscriptText != "" {
		fmt.Fprintf(b, "  - Transcript: %s\n", snippet(*e.TranscriptText))
	}
	if e.Type == models.EvidenceTypeImage && e.OCRText != nil && *e.OCRText != "" {
		fmt.Fprintf(b, "  - OCR: %s\n", snippet(*e.OCRText))
	}
	b.WriteString("\n")
}

// writeFactGroups buckets facts by the sorted set of tag names on their
// linked evidence, facts without any tagged evidence under "Untagged".
func writeFactGroups(b *strings.Builder, facts []models.Fact) {
	groups := map[string][]models.Fact{}
	for _, f := range facts {
		seen := map[string]bool{}
		for _, e := range f.Evidence {
			for _, t := range e.Tags {
				seen[t.Name] = true
			}
		}
		key := "Untagged"
		if len(seen) > 0 {
			names := make([]string, 0, len(seen))
			for n := range seen {
				names = append(names, n)
			}
			sort.Strings(names)
			key = strings.Join(names, ", ")
		}
		groups[key] = append(groups[key], f)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		fmt.Fprintf(b, "### %s\n\n", key)
		for _, f := range groups[key] {
			fmt.Fprintf(b, "- **%s**\n", f.Title)
			if f.Description != nil && *f.Description != "" {
				fmt.Fprintf(b, "  %s\n", *f.Description)
			}
			if len(f.Evidence) > 0 {
				names := make([]string, 0, len(f.Evidence))
				for _, e := range f.Evidence {
					if e.FileName != nil && *e.FileName != "" {
						names = append(names, *e.FileName)
					} else {
						names = append(names, e.ID)
					}
				}
				fmt.Fprintf(b, "  Evidence: %s\n", strings.Join(names, ", "))
			}
			b.WriteString("\n")
		}
	}
}

func typeLabel(t string) string {
	switch t {
	case models.EvidenceTypeImage:
		return "Image"
	case models.EvidenceTypeAudio:
		return "Audio"
	default:
		return "Text"
	}
}

func snippet(s string) string {
	r := []rune(s)
	if len(r) <= snippetLen {
		return s
	}
	return string(r[:snippetLen]) + "…"
}
