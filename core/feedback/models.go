package feedback

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"time"
)

// Type selects the extraction heuristics and field set for a document.
type Type string

const (
	// TypePrimary is the narrative-only format (topic, what-was-good,
	// needs-improvement).
	TypePrimary Type = "primary"
	// TypeSecondary is the rubric-scored debate format.
	TypeSecondary Type = "secondary"
)

func (t Type) ClassName() string {
	if t == TypePrimary {
		return "PSD Primary"
	}
	return "PSD I"
}

// RubricCategory is one fixed rubric row of the secondary feedback table,
// recognised by any of its keyword variants (document authors reword the row
// labels between terms).
type RubricCategory struct {
	Name     string
	Keywords []string
}

var RubricCategories = []RubricCategory{
	{"time_management", []string{"Student spoke for the duration", "spoke for the duration"}},
	{"poi_handling", []string{"point of information", "POI"}},
	{"speaking_style", []string{"stylistic and persuasive manner", "speaking style"}},
	{"argument_completeness", []string{"argument is complete", "Claims, supported by"}},
	{"theory_application", []string{"reflects application of theory", "theory taught"}},
	{"rebuttal_effectiveness", []string{"rebuttal is effective", "responds to an opponent"}},
	{"team_support", []string{"supported teammate", "teammate's case"}},
	{"feedback_application", []string{"applied feedback from previous", "previous debate"}},
}

// Record is one student's feedback entry reconstructed from a document. It is
// synthesized fresh on every run; persistence happens through the upsert
// writer keyed by UniqueID.
type Record struct {
	ID           string
	StudentID    string
	StudentName  string
	Type         Type
	ClassCode    string
	ClassName    string
	UnitNumber   string
	LessonNumber string
	Topic        string
	Motion       string
	// TeacherComments holds the narrative: the teacher's free-text comments
	// for secondary, the combined best/improvement blocks for primary.
	TeacherComments string
	// RubricScores maps category name to "1".."5" or "N/A" for secondary;
	// for primary it carries the what_was_good/needs_improvement presence
	// markers stored in the same column.
	RubricScores map[string]string
	// Primary narrative fields.
	WhatWasGood      string
	NeedsImprovement string
	Duration         string
	Instructor       string
	UniqueID         string
	Content          string
	FilePath         string
	Occurrence       int
	CreatedAt        time.Time
}

// ComputeUniqueID derives the idempotency key: a pure function of the
// identity tuple, byte-identical across runs and processes.
func (r *Record) ComputeUniqueID() string {
	sum := md5.Sum([]byte(fmt.Sprintf(
		"%s_%s_%s.%s_%d_%s_%s",
		r.StudentName, r.ClassCode, r.UnitNumber, r.LessonNumber,
		r.Occurrence, filepath.Base(r.FilePath), r.Instructor,
	)))
	return hex.EncodeToString(sum[:])
}

// BuildContent renders the display blob stored alongside the typed fields.
func (r *Record) BuildContent() string {
	if r.Type == TypePrimary {
		return fmt.Sprintf(
			"Topic: %s\nDuration: %s\n\nWhat was BEST:\n%s\n\nNeeds IMPROVEMENT:\n%s",
			orNA(r.Topic), orNA(r.Duration),
			orText(r.WhatWasGood, "No feedback"),
			orText(r.NeedsImprovement, "No feedback"),
		)
	}
	return fmt.Sprintf(
		"Motion: %s\nDuration: %s\n\nTeacher Comments:\n%s",
		orNA(r.Motion), orNA(r.Duration), orText(r.TeacherComments, "No comments"),
	)
}

func orNA(s string) string { return orText(s, "N/A") }

func orText(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// SortRecords orders one student's records by (unit, lesson, occurrence)
// ascending so batch logs and final counts are reproducible across runs. The
// writer does not depend on this order; downstream reporting does.
func SortRecords(recs []*Record) {
	sort.SliceStable(recs, func(i, j int) bool {
		ui, uj := atoi(recs[i].UnitNumber), atoi(recs[j].UnitNumber)
		if ui != uj {
			return ui < uj
		}
		li, lj := atoi(recs[i].LessonNumber), atoi(recs[j].LessonNumber)
		if li != lj {
			return li < lj
		}
		return recs[i].Occurrence < recs[j].Occurrence
	})
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
