package feedback

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Path metadata: class code, unit/lesson, instructor and feedback type are
// all encoded in how the corpus directories and file names are laid out.

var classCodeRe = regexp.MustCompile(`\b(\d{2}[A-Z]{5}\d{4})\b`)

// ClassCode finds the course code anywhere in the path; "UNKNOWN" when absent.
func ClassCode(path string) string {
	if m := classCodeRe.FindStringSubmatch(path); m != nil {
		return m[1]
	}
	return "UNKNOWN"
}

// Ordered unit/lesson patterns; first match wins.
var unitLessonPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d+)[._](\d+)`),            // 2.4, 2_4
	regexp.MustCompile(`(?i)Unit\s*(\d+)\D*?(\d+)`), // Unit 6 ... 7
	regexp.MustCompile(`(?i)Day\s*(\d+)`),           // Day 3 (unit=3, lesson=1)
}

// UnitLesson derives the ordinal coordinates from the file's base name.
// Both default to "0" — callers must treat "0" as "coordinates unknown", not
// as a legitimate first unit.
func UnitLesson(path string) (unit, lesson string) {
	basename := filepath.Base(path)
	for _, re := range unitLessonPatterns {
		m := re.FindStringSubmatch(basename)
		if m == nil {
			continue
		}
		if len(m) > 2 && m[2] != "" {
			return m[1], m[2]
		}
		return m[1], "1"
	}
	return "0", "0"
}

// Instructor matches path segments against the known-instructor list;
// "Unknown" when no segment matches.
func Instructor(path string, known []string) string {
	sep := string(filepath.Separator)
	for _, name := range known {
		if strings.Contains(path, sep+name+sep) {
			return name
		}
	}
	return "Unknown"
}

// TypeFromPath picks the extraction variant from the corpus layout: documents
// under a "Primary" directory use the narrative format, everything else the
// rubric-scored secondary format.
func TypeFromPath(path string) Type {
	for _, seg := range strings.Split(path, string(filepath.Separator)) {
		if strings.EqualFold(seg, "Primary") {
			return TypePrimary
		}
	}
	return TypeSecondary
}
