package database

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ukuaji/core"
	"github.com/trezcool/ukuaji/core/feedback"
)

type feedbackRepository struct {
	db *sqlx.DB
}

var _ feedback.Repository = (*feedbackRepository)(nil) // interface compliance check

func NewFeedbackRepository(db *sqlx.DB) *feedbackRepository {
	return &feedbackRepository{db: db}
}

type feedbackRow struct {
	ID               string      `db:"id"`
	StudentID        null.String `db:"student_id"`
	StudentName      string      `db:"student_name"`
	FeedbackType     string      `db:"feedback_type"`
	ClassCode        string      `db:"class_code"`
	ClassName        null.String `db:"class_name"`
	UnitNumber       string      `db:"unit_number"`
	LessonNumber     string      `db:"lesson_number"`
	Topic            null.String `db:"topic"`
	Motion           null.String `db:"motion"`
	TeacherComments  null.String `db:"teacher_comments"`
	RubricScores     null.JSON   `db:"rubric_scores"`
	WhatWasGood      null.String `db:"what_was_good"`
	NeedsImprovement null.String `db:"needs_improvement"`
	Duration         null.String `db:"duration"`
	Instructor       null.String `db:"instructor"`
	UniqueID         string      `db:"unique_id"`
	Content          null.String `db:"content"`
	FilePath         null.String `db:"file_path"`
	Occurrence       int         `db:"occurrence"`
	CreatedAt        time.Time   `db:"created_at"`
}

func (repo feedbackRepository) pack(rec *feedback.Record) (*feedbackRow, error) {
	row := &feedbackRow{
		ID:               rec.ID,
		StudentID:        null.NewString(rec.StudentID, rec.StudentID != ""),
		StudentName:      rec.StudentName,
		FeedbackType:     string(rec.Type),
		ClassCode:        rec.ClassCode,
		ClassName:        null.NewString(rec.ClassName, rec.ClassName != ""),
		UnitNumber:       rec.UnitNumber,
		LessonNumber:     rec.LessonNumber,
		Topic:            null.NewString(rec.Topic, rec.Topic != ""),
		Motion:           null.NewString(rec.Motion, rec.Motion != ""),
		TeacherComments:  null.NewString(rec.TeacherComments, rec.TeacherComments != ""),
		WhatWasGood:      null.NewString(rec.WhatWasGood, rec.WhatWasGood != ""),
		NeedsImprovement: null.NewString(rec.NeedsImprovement, rec.NeedsImprovement != ""),
		Duration:         null.NewString(rec.Duration, rec.Duration != ""),
		Instructor:       null.NewString(rec.Instructor, rec.Instructor != ""),
		UniqueID:         rec.UniqueID,
		Content:          null.NewString(rec.Content, rec.Content != ""),
		FilePath:         null.NewString(rec.FilePath, rec.FilePath != ""),
		Occurrence:       rec.Occurrence,
		CreatedAt:        time.Now().UTC(),
	}
	if !rec.CreatedAt.IsZero() {
		row.CreatedAt = rec.CreatedAt.UTC()
	}
	if rec.RubricScores != nil {
		data, err := json.Marshal(rec.RubricScores)
		if err != nil {
			return nil, errors.Wrap(err, "marshaling rubric scores")
		}
		row.RubricScores = null.JSONFrom(data)
	}
	return row, nil
}

func (repo feedbackRepository) unpack(row *feedbackRow) (feedback.Record, error) {
	rec := feedback.Record{
		ID:               row.ID,
		StudentID:        row.StudentID.String,
		StudentName:      row.StudentName,
		Type:             feedback.Type(row.FeedbackType),
		ClassCode:        row.ClassCode,
		ClassName:        row.ClassName.String,
		UnitNumber:       row.UnitNumber,
		LessonNumber:     row.LessonNumber,
		Topic:            row.Topic.String,
		Motion:           row.Motion.String,
		TeacherComments:  row.TeacherComments.String,
		WhatWasGood:      row.WhatWasGood.String,
		NeedsImprovement: row.NeedsImprovement.String,
		Duration:         row.Duration.String,
		Instructor:       row.Instructor.String,
		UniqueID:         row.UniqueID,
		Content:          row.Content.String,
		FilePath:         row.FilePath.String,
		Occurrence:       row.Occurrence,
		CreatedAt:        row.CreatedAt,
	}
	if row.RubricScores.Valid {
		if err := json.Unmarshal(row.RubricScores.JSON, &rec.RubricScores); err != nil {
			return feedback.Record{}, errors.Wrap(err, "unmarshaling rubric scores")
		}
	}
	return rec, nil
}

const upsertQuery = `
INSERT INTO parsed_student_feedback (
	id, student_id, student_name, feedback_type, class_code, class_name,
	unit_number, lesson_number, topic, motion, teacher_comments, rubric_scores,
	what_was_good, needs_improvement, duration, instructor, unique_id, content,
	file_path, occurrence, created_at
) VALUES (
	:id, :student_id, :student_name, :feedback_type, :class_code, :class_name,
	:unit_number, :lesson_number, :topic, :motion, :teacher_comments, :rubric_scores,
	:what_was_good, :needs_improvement, :duration, :instructor, :unique_id, :content,
	:file_path, :occurrence, :created_at
)
ON CONFLICT (unique_id) DO UPDATE SET
	rubric_scores = EXCLUDED.rubric_scores,
	teacher_comments = EXCLUDED.teacher_comments,
	what_was_good = EXCLUDED.what_was_good,
	needs_improvement = EXCLUDED.needs_improvement,
	duration = EXCLUDED.duration,
	content = EXCLUDED.content,
	motion = EXCLUDED.motion,
	topic = EXCLUDED.topic
RETURNING (xmax = 0) AS inserted`

// UpsertRecord reconciles the record into the store keyed by unique_id. The
// conflict branch only touches the re-extracted field subset; id, created_at
// and the identity columns keep their original values. Postgres reports an
// insert via a zero xmax on the returned tuple.
func (repo feedbackRepository) UpsertRecord(ctx context.Context, rec *feedback.Record) (bool, error) {
	row, err := repo.pack(rec)
	if err != nil {
		return false, err
	}

	stmt, err := repo.db.PrepareNamedContext(ctx, upsertQuery)
	if err != nil {
		return false, errors.Wrap(err, "preparing feedback upsert")
	}
	defer func() { _ = stmt.Close() }()

	var inserted bool
	if err = stmt.GetContext(ctx, &inserted, row); err != nil {
		return false, errors.Wrap(err, "upserting feedback")
	}
	return inserted, nil
}

func (repo feedbackRepository) QueryRecords(ctx context.Context, filter feedback.QueryFilter, ordering ...core.DBOrdering) ([]feedback.Record, error) {
	query := "SELECT * FROM parsed_student_feedback"
	var (
		conds []string
		args  []interface{}
	)
	if filter.StudentName != "" {
		args = append(args, filter.StudentName)
		conds = append(conds, fmt.Sprintf("student_name = $%d", len(args)))
	}
	if filter.Instructor != "" {
		args = append(args, filter.Instructor)
		conds = append(conds, fmt.Sprintf("instructor = $%d", len(args)))
	}
	if filter.Type != "" {
		args = append(args, string(filter.Type))
		conds = append(conds, fmt.Sprintf("feedback_type = $%d", len(args)))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	if orderBy := orderClause(ordering); orderBy != "" {
		query += " ORDER BY " + orderBy
	}

	var rows []feedbackRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying feedback")
	}

	recs := make([]feedback.Record, 0, len(rows))
	for i := range rows {
		rec, err := repo.unpack(&rows[i])
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// orderableColumns whitelists the columns callers may sort on.
var orderableColumns = map[string]bool{
	"student_name":  true,
	"class_code":    true,
	"unit_number":   true,
	"lesson_number": true,
	"instructor":    true,
	"created_at":    true,
}

func orderClause(ordering []core.DBOrdering) string {
	var parts []string
	for _, ord := range ordering {
		if orderableColumns[ord.Field] {
			parts = append(parts, ord.String())
		}
	}
	return strings.Join(parts, ", ")
}

func (repo feedbackRepository) CountByFirstName(ctx context.Context, instructor string, typ feedback.Type) (map[string]int, error) {
	query := `
SELECT LOWER(SPLIT_PART(student_name, ' ', 1)) AS first_name, COUNT(*) AS count
FROM parsed_student_feedback
WHERE instructor = $1 AND feedback_type = $2
GROUP BY first_name`

	var rows []struct {
		FirstName string `db:"first_name"`
		Count     int    `db:"count"`
	}
	if err := repo.db.SelectContext(ctx, &rows, query, instructor, string(typ)); err != nil {
		return nil, errors.Wrap(err, "counting feedback by first name")
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.FirstName] = row.Count
	}
	return counts, nil
}

func (repo feedbackRepository) DistinctGroups(ctx context.Context) ([]feedback.Group, error) {
	query := `
SELECT student_name, class_code, unit_number, feedback_type, COUNT(*) AS count
FROM parsed_student_feedback
GROUP BY student_name, class_code, unit_number, feedback_type
ORDER BY student_name, class_code, unit_number`

	var rows []struct {
		StudentName  string `db:"student_name"`
		ClassCode    string `db:"class_code"`
		UnitNumber   string `db:"unit_number"`
		FeedbackType string `db:"feedback_type"`
		Count        int    `db:"count"`
	}
	if err := repo.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, errors.Wrap(err, "querying feedback groups")
	}

	groups := make([]feedback.Group, 0, len(rows))
	for _, row := range rows {
		groups = append(groups, feedback.Group{
			StudentName: row.StudentName,
			ClassCode:   row.ClassCode,
			UnitNumber:  row.UnitNumber,
			Type:        feedback.Type(row.FeedbackType),
			Count:       row.Count,
		})
	}
	return groups, nil
}
