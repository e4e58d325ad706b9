package feedback

// The field heuristics are ordered rule lists rather than nested if chains:
// each rule either yields a value or an empty string, and the combinator
// makes the precedence explicit and testable in isolation.

type Rule struct {
	Name string
	Try  func(seg Segment) string
}

// applyFirst returns the first rule's non-empty result.
func applyFirst(seg Segment, rules []Rule) string {
	for _, r := range rules {
		if v := r.Try(seg); v != "" {
			return v
		}
	}
	return ""
}

// applyOverride runs every rule in order and keeps the LAST non-empty result,
// so later, more specific rules override earlier heuristic guesses. The
// motion field depends on this: the labeled "Motion:" rule runs last and wins
// whenever it matches, even if the line or cell heuristics already guessed.
func applyOverride(seg Segment, rules []Rule) string {
	var out string
	for _, r := range rules {
		if v := r.Try(seg); v != "" {
			out = v
		}
	}
	return out
}
