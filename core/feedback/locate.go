package feedback

import (
	"sort"
	"strings"
	"unicode"
)

// Segment is one occurrence of a student's feedback block, carried in both
// renderings of the document. Markup may be empty when the markup rendering
// has no recognisable label for this occurrence; the extractor degrades to
// text-only fields in that case.
type Segment struct {
	Markup     string
	Text       string
	Occurrence int
}

// A small fixed skip past the matched label before searching for the next
// one, so a marker embedded at the very start of the block cannot terminate
// its own segment.
const nextLabelSkip = 20

func textLabel(typ Type) string {
	if typ == TypePrimary {
		return "Student:"
	}
	return "Student Name:"
}

// markupLabelVariants returns the literal label spellings to try against the
// markup rendering. Document authors are inconsistent about where the
// emphasis tags close, so several variants are scanned and their hits merged.
func markupLabelVariants(typ Type, name string) []string {
	label := textLabel(typ)
	return []string{
		label + " " + name,
		label + " </strong>" + name,
		"<strong>" + label + " </strong>" + name,
		label + "</strong> " + name,
	}
}

// Locate finds every feedback block for the given name in both renderings.
// Zero matches is not an error: the document simply has no feedback for this
// student. Matching is case-insensitive; the name must end at a word boundary
// so "Alex" does not match "Alexandra".
func Locate(markup, text, name string, typ Type) []Segment {
	label := textLabel(typ)

	starts := findLabeledName(text, label, name)
	segs := make([]Segment, 0, len(starts))
	for i, start := range starts {
		end := len(text)
		if next := indexFoldFrom(text, label, start+nextLabelSkip); next >= 0 {
			end = next
		}
		if i+1 < len(starts) && starts[i+1] < end {
			end = starts[i+1]
		}
		segs = append(segs, Segment{Text: text[start:end], Occurrence: i})
	}
	if len(segs) == 0 {
		return nil
	}

	mstarts := findMarkupStarts(markup, typ, name)
	for i := range segs {
		if i >= len(mstarts) {
			break
		}
		start := mstarts[i]
		end := len(markup)
		if next := indexFoldFrom(markup, label, start+nextLabelSkip); next >= 0 {
			end = next
		}
		if i+1 < len(mstarts) && mstarts[i+1] < end {
			end = mstarts[i+1]
		}
		segs[i].Markup = markup[start:end]
	}
	return segs
}

// scanNames returns the first name following each label occurrence in the
// text rendering, in document order, roster or not. Duplicates are kept; the
// tally per spelling feeds the coverage census.
func scanNames(text string, typ Type) []string {
	label := textLabel(typ)
	var names []string
	from := 0
	for {
		idx := indexFoldFrom(text, label, from)
		if idx < 0 {
			return names
		}
		rest := strings.TrimLeft(text[idx+len(label):], " \t")
		if name := leadingWord(rest); name != "" {
			names = append(names, name)
		}
		from = idx + len(label)
	}
}

func leadingWord(s string) string {
	end := 0
	for end < len(s) {
		r := rune(s[end])
		if !unicode.IsLetter(r) && r != '\'' && r != '-' {
			break
		}
		end++
	}
	return s[:end]
}

// findLabeledName returns the start offsets of every `label` immediately
// followed (modulo whitespace) by `name` ending at a word boundary.
func findLabeledName(s, label, name string) []int {
	var starts []int
	from := 0
	for {
		idx := indexFoldFrom(s, label, from)
		if idx < 0 {
			return starts
		}
		rest := s[idx+len(label):]
		trimmed := strings.TrimLeft(rest, " \t")
		if hasNamePrefixFold(trimmed, name) {
			starts = append(starts, idx)
		}
		from = idx + len(label)
	}
}

// findMarkupStarts merges the hits of every markup label variant, deduped and
// sorted, like the locator does for the text rendering but tolerating the
// emphasis-tag spellings.
func findMarkupStarts(markup string, typ Type, name string) []int {
	seen := make(map[int]bool)
	var starts []int
	for _, variant := range markupLabelVariants(typ, name) {
		from := 0
		for {
			idx := indexFoldFrom(markup, variant, from)
			if idx < 0 {
				break
			}
			if !seen[idx] && boundaryAfterFold(markup, idx, variant) {
				seen[idx] = true
				starts = append(starts, idx)
			}
			from = idx + 1
		}
	}
	sort.Ints(starts)

	// A "<strong>"-prefixed variant and its bare form hit the same label at
	// offsets len("<strong>") apart; keep the earliest of each cluster.
	collapsed := starts[:0]
	for _, idx := range starts {
		if n := len(collapsed); n > 0 && idx-collapsed[n-1] <= len("<strong>") {
			continue
		}
		collapsed = append(collapsed, idx)
	}
	return collapsed
}

// indexFoldFrom is a case-insensitive strings.Index starting at `from`.
func indexFoldFrom(s, sub string, from int) int {
	if from < 0 {
		from = 0
	}
	if from >= len(s) {
		return -1
	}
	idx := strings.Index(strings.ToLower(s[from:]), strings.ToLower(sub))
	if idx < 0 {
		return -1
	}
	return from + idx
}

// hasNamePrefixFold reports whether s starts with name (case-insensitively)
// followed by a word boundary.
func hasNamePrefixFold(s, name string) bool {
	if len(s) < len(name) || !strings.EqualFold(s[:len(name)], name) {
		return false
	}
	return boundaryAt(s, len(name))
}

func boundaryAfterFold(s string, idx int, sub string) bool {
	return boundaryAt(s[idx:], len(sub))
}

func boundaryAt(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r := rune(s[i])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
