package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/ukuaji/core"
	"github.com/trezcool/ukuaji/core/student"
)

type studentRepository struct {
	exec core.DBExecutor
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(exec core.DBExecutor) *studentRepository {
	return &studentRepository{exec: exec}
}

func (repo studentRepository) CreateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	_, err := repo.exec.ExecContext(ctx,
		"INSERT INTO students (id, name, grade, created_at) VALUES ($1, $2, $3, $4)",
		s.ID, s.Name, s.Grade, time.Now().UTC(),
	)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	return s, nil
}

func (repo studentRepository) QueryAllStudents(ctx context.Context) ([]student.Student, error) {
	rows, err := repo.exec.QueryContext(ctx, "SELECT id, name, grade FROM students ORDER BY name")
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	defer func() { _ = rows.Close() }()

	var roster []student.Student
	for rows.Next() {
		var s student.Student
		if err = rows.Scan(&s.ID, &s.Name, &s.Grade); err != nil {
			return nil, errors.Wrap(err, "scanning student")
		}
		roster = append(roster, s)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	return roster, nil
}
