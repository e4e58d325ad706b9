package testutil

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/trezcool/ukuaji/core"
	"github.com/trezcool/ukuaji/core/student"
)

func CreateStudent(t *testing.T, repo student.Repository, name, grade string) student.Student {
	s, err := repo.CreateStudent(context.Background(), student.Student{Name: name, Grade: grade})
	if err != nil {
		t.Fatalf("createStudent() failed: %v", err)
	}
	return s
}

// WriteDocx writes a minimal .docx archive whose word/document.xml holds the
// given body, creating parent directories as needed.
func WriteDocx(t *testing.T, path, documentXML string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("writeDocx() failed: %v", err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("writeDocx() failed: %v", err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	doc, err := w.Create("word/document.xml")
	if err != nil {
		t.Fatalf("writeDocx() failed: %v", err)
	}
	if _, err = doc.Write([]byte(documentXML)); err != nil {
		t.Fatalf("writeDocx() failed: %v", err)
	}
	if err = w.Close(); err != nil {
		t.Fatalf("writeDocx() failed: %v", err)
	}
}

type TestLogger struct {
	t *testing.T
}

var _ core.Logger = (*TestLogger)(nil)

func NewTestLogger(t *testing.T) *TestLogger { return &TestLogger{t: t} }

func (l TestLogger) Enable(bool) {}

func (l TestLogger) log(msg string, args []interface{}) {
	l.t.Helper()
	l.t.Log(append([]interface{}{msg}, args...)...)
}

func (l TestLogger) Debug(msg string, args ...interface{}) { l.log(msg, args) }
func (l TestLogger) Info(msg string, args ...interface{})  { l.log(msg, args) }
func (l TestLogger) Warn(msg string, args ...interface{})  { l.log(msg, args) }
func (l TestLogger) Error(msg string, args ...interface{}) { l.log(msg, args) }
func (l TestLogger) Fatal(msg string, args ...interface{}) { l.log(msg, args) }
