package feedback

import (
	"regexp"
	"strings"
)

// FieldSet is the typed output of extracting one located segment. Absent
// fields are empty strings/nil map entries, never errors: extraction degrades
// per field.
type FieldSet struct {
	Motion           string
	Topic            string
	Comments         string
	Duration         string
	WhatWasGood      string
	NeedsImprovement string
	Scores           map[string]string
}

var (
	durationRe     = regexp.MustCompile(`\d+:\d+`)
	speakingTimeRe = regexp.MustCompile(`(?i)Speaking time:\s*(\d+:\d+(?:\.\d+)?)`)
	topicRe        = regexp.MustCompile(`(?i)Topic:\s*([^\n]+)`)

	rowSplitRe       = regexp.MustCompile(`(?i)</tr>`)
	boldScoreRe      = regexp.MustCompile(`(?i)<(?:strong|b)>(N/A|[1-5])</(?:strong|b)>`)
	adjacentCellRe   = regexp.MustCompile(`(?i)</td>\s*<td[^>]*>([^<]+)</td>`)
	markupMotionRe   = regexp.MustCompile(`(?i)Motion:(?:\s*</strong>)?\s*([^<\n]+)`)
	markupTagStripRe = regexp.MustCompile(`<[^>]+>`)

	// Primary narrative label variants, first match wins.
	whatWasGoodRules = []Rule{
		{"best-thing-question", regexText(`(?is)What was the BEST thing[^?]*\?\s*(.+?)(?:What part|$)`)},
		{"went-well-question", regexText(`(?is)What went well[^?]*\?\s*(.+?)(?:What|Areas|$)`)},
		{"strengths-label", regexText(`(?is)Strengths[^:]*:\s*(.+?)(?:Areas|What|$)`)},
	}
	needsImprovementRules = []Rule{
		{"needs-improvement-question", regexText(`(?is)What part[^?]*NEEDS IMPROVEMENT[^?]*\?\s*(.+)$`)},
		{"areas-label", regexText(`(?is)Areas? for improvement[^:]*:\s*(.+)$`)},
		{"improve-question", regexText(`(?is)What.*improve[^?]*\?\s*(.+)$`)},
	}

	// Motion precedence: the line and cell heuristics guess first; the
	// labeled rule runs last and overrides them whenever it matches.
	motionRules = []Rule{
		{"text-first-line", motionFromTextLine},
		{"markup-adjacent-cell", motionFromAdjacentCell},
		{"markup-labeled", motionFromLabel},
	}
)

// regexText builds a rule body matching `re` against the text rendering of
// the segment.
func regexText(pattern string) func(Segment) string {
	re := regexp.MustCompile(pattern)
	return func(seg Segment) string {
		if m := re.FindStringSubmatch(seg.Text); m != nil {
			return strings.TrimSpace(m[1])
		}
		return ""
	}
}

// Extract derives the typed fields for one located segment. It never fails:
// every unmatched field is simply absent.
func Extract(seg Segment, typ Type) FieldSet {
	if typ == TypePrimary {
		return extractPrimary(seg)
	}
	return extractSecondary(seg)
}

func extractSecondary(seg Segment) FieldSet {
	return FieldSet{
		Motion:   applyOverride(seg, motionRules),
		Comments: extractComments(seg.Text),
		Duration: durationRe.FindString(seg.Text),
		Scores:   extractScores(seg.Markup),
	}
}

func extractPrimary(seg Segment) FieldSet {
	fs := FieldSet{
		WhatWasGood:      applyFirst(seg, whatWasGoodRules),
		NeedsImprovement: applyFirst(seg, needsImprovementRules),
	}
	if m := topicRe.FindStringSubmatch(seg.Text); m != nil {
		fs.Topic = strings.TrimSpace(m[1])
	}
	if m := speakingTimeRe.FindStringSubmatch(seg.Text); m != nil {
		fs.Duration = m[1]
	}
	return fs
}

// motionFromTextLine takes the first non-empty line after the name line when
// it is substantial (longer than 10 chars) and not itself a label.
func motionFromTextLine(seg Segment) string {
	lines := strings.Split(seg.Text, "\n")
	for _, line := range lines[1:] {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(line) > 10 && !strings.Contains(strings.ToLower(line), "teacher comments") {
			return line
		}
		return ""
	}
	return ""
}

// motionFromAdjacentCell reads the table cell right after the name's cell in
// the markup rendering.
func motionFromAdjacentCell(seg Segment) string {
	if m := adjacentCellRe.FindStringSubmatch(seg.Markup); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func motionFromLabel(seg Segment) string {
	if m := markupMotionRe.FindStringSubmatch(seg.Markup); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// extractComments captures the text after "Teacher comments:" up to the next
// duration-like token or the end of the segment.
func extractComments(text string) string {
	idx := indexFoldFrom(text, "Teacher comments:", 0)
	if idx < 0 {
		return ""
	}
	rest := text[idx+len("Teacher comments:"):]
	if loc := durationRe.FindStringIndex(rest); loc != nil {
		rest = rest[:loc[0]]
	}
	return strings.TrimSpace(markupTagStripRe.ReplaceAllString(rest, ""))
}

// extractScores scans the markup rows (split on row-closing tags) for each
// rubric category: the first row containing one of the category's keywords
// AND a bolded N/A|1-5 value wins. Categories with no such row are absent
// from the map, not zero.
func extractScores(markup string) map[string]string {
	if markup == "" {
		return nil
	}
	rows := rowSplitRe.Split(markup, -1)
	scores := make(map[string]string)
	for _, cat := range RubricCategories {
		for _, row := range rows {
			if !containsAnyFold(row, cat.Keywords) {
				continue
			}
			if m := boldScoreRe.FindStringSubmatch(row); m != nil {
				scores[cat.Name] = strings.ToUpper(m[1])
				break
			}
		}
	}
	if len(scores) == 0 {
		return nil
	}
	return scores
}

func containsAnyFold(s string, subs []string) bool {
	lower := strings.ToLower(s)
	for _, sub := range subs {
		if strings.Contains(lower, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}
