package main

import (
	"context"

	"github.com/trezcool/ukuaji/core"
	"github.com/trezcool/ukuaji/core/student"
	"github.com/trezcool/ukuaji/storage/database"
)

// addStudent seeds one roster entry.
func (cli *commandLine) addStudent(name, grade string) error {
	repo := database.NewStudentRepository(cli.db.DB)
	_, err := repo.CreateStudent(context.Background(), student.Student{
		Name:  core.CleanString(name),
		Grade: core.CleanString(grade),
	})
	return err
}
