package feedback

import (
	"reflect"
	"testing"
)

func TestExtract_secondary(t *testing.T) {
	seg := Segment{
		Text: "Student Name: Alex\nClimate change policy is flawed\nTeacher comments: Good pacing\n4:32",
		Markup: "<p><strong>Student Name: </strong>Alex</p>" +
			"<table><tr><td>Offering and responding to a point of information</td><td><strong>4</strong></td></tr>" +
			"<tr><td>Student spoke for the duration of the speech</td><td><strong>N/A</strong></td></tr></table>",
	}

	fs := Extract(seg, TypeSecondary)

	if fs.Motion != "Climate change policy is flawed" {
		t.Errorf("Motion = %q", fs.Motion)
	}
	if fs.Comments != "Good pacing" {
		t.Errorf("Comments = %q", fs.Comments)
	}
	if fs.Duration != "4:32" {
		t.Errorf("Duration = %q", fs.Duration)
	}
	wantScores := map[string]string{
		"poi_handling":    "4",
		"time_management": "N/A",
	}
	if !reflect.DeepEqual(fs.Scores, wantScores) {
		t.Errorf("Scores = %v, want %v", fs.Scores, wantScores)
	}
}

func TestExtract_secondaryMotionOverride(t *testing.T) {
	seg := Segment{
		Text:   "Student Name: Alex\nSome throat-clearing preamble line\nTeacher comments: fine 3:05",
		Markup: "<p><strong>Motion:</strong> This house would ban homework</p>",
	}

	fs := Extract(seg, TypeSecondary)
	if fs.Motion != "This house would ban homework" {
		t.Errorf("Motion = %q, want the labeled motion to override the first-line guess", fs.Motion)
	}
}

func TestExtract_secondaryMotionFromAdjacentCell(t *testing.T) {
	seg := Segment{
		Text:   "Student Name: Alex\n",
		Markup: "<table><tr><td>Student Name: Alex</td><td>This house supports school uniforms</td></tr></table>",
	}

	fs := Extract(seg, TypeSecondary)
	if fs.Motion != "This house supports school uniforms" {
		t.Errorf("Motion = %q, want the adjacent table cell", fs.Motion)
	}
}

func TestExtract_secondaryMissingFields(t *testing.T) {
	seg := Segment{Text: "Student Name: Alex\n"}

	fs := Extract(seg, TypeSecondary)
	if fs.Motion != "" || fs.Comments != "" || fs.Duration != "" || fs.Scores != nil {
		t.Errorf("Extract() = %+v, want all fields absent", fs)
	}
}

func TestExtract_secondaryShortLineIsNotAMotion(t *testing.T) {
	seg := Segment{Text: "Student Name: Alex\nYes\nTeacher comments: fine"}

	fs := Extract(seg, TypeSecondary)
	if fs.Motion != "" {
		t.Errorf("Motion = %q, want empty for a short line", fs.Motion)
	}
}

func TestExtract_primary(t *testing.T) {
	seg := Segment{
		Text: "Student: Ben\nTopic: My favourite animal\nSpeaking time: 1:45\n" +
			"What was the BEST thing about the speech? Great eye contact and projection. " +
			"What part of the speech NEEDS IMPROVEMENT? Slow down at the end.",
	}

	fs := Extract(seg, TypePrimary)

	if fs.Topic != "My favourite animal" {
		t.Errorf("Topic = %q", fs.Topic)
	}
	if fs.Duration != "1:45" {
		t.Errorf("Duration = %q", fs.Duration)
	}
	if fs.WhatWasGood != "Great eye contact and projection." {
		t.Errorf("WhatWasGood = %q", fs.WhatWasGood)
	}
	if fs.NeedsImprovement != "Slow down at the end." {
		t.Errorf("NeedsImprovement = %q", fs.NeedsImprovement)
	}
}

func TestExtract_primaryAlternateLabels(t *testing.T) {
	seg := Segment{
		Text: "Student: Ben\nStrengths of the speech: Clear structure. " +
			"Areas for improvement: Project your voice.",
	}

	fs := Extract(seg, TypePrimary)

	if fs.WhatWasGood != "Clear structure." {
		t.Errorf("WhatWasGood = %q", fs.WhatWasGood)
	}
	if fs.NeedsImprovement != "Project your voice." {
		t.Errorf("NeedsImprovement = %q", fs.NeedsImprovement)
	}
}

func TestExtract_scoresFirstMatchingRowWins(t *testing.T) {
	markup := "<table>" +
		"<tr><td>point of information</td><td>no bold value here</td></tr>" +
		"<tr><td>point of information</td><td><strong>3</strong></td></tr>" +
		"<tr><td>point of information</td><td><strong>5</strong></td></tr>" +
		"</table>"

	scores := extractScores(markup)
	if scores["poi_handling"] != "3" {
		t.Errorf("poi_handling = %q, want the first scored row", scores["poi_handling"])
	}
}
