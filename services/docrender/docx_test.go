package docrendersvc

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/trezcool/ukuaji/core"
	testutil "github.com/trezcool/ukuaji/tests"
)

const sampleDocumentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p>
      <w:r><w:rPr><w:b/></w:rPr><w:t xml:space="preserve">Student Name: </w:t></w:r>
      <w:r><w:t>Alex</w:t></w:r>
    </w:p>
    <w:p><w:r><w:t>This house would ban homework &amp; exams</w:t></w:r></w:p>
    <w:tbl>
      <w:tr>
        <w:tc><w:p><w:r><w:t>point of information</w:t></w:r></w:p></w:tc>
        <w:tc><w:p><w:r><w:rPr><w:b/></w:rPr><w:t>4</w:t></w:r></w:p></w:tc>
      </w:tr>
    </w:tbl>
    <w:p>
      <w:r><w:rPr><w:b w:val="0"/></w:rPr><w:t>not actually bold</w:t></w:r>
    </w:p>
  </w:body>
</w:document>`

func renderSample(t *testing.T) (markup, text string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "sample.docx")
	testutil.WriteDocx(t, path, sampleDocumentXML)

	svc := NewService(testutil.NewTestLogger(t), 5*time.Second)
	rnd, err := svc.Render(context.Background(), path)
	if err != nil {
		t.Fatalf("Render() failed: %v", err)
	}
	return rnd.Markup, rnd.Text
}

func TestService_Render_markup(t *testing.T) {
	markup, _ := renderSample(t)

	wants := []string{
		"<strong>Student Name: </strong>Alex",
		"This house would ban homework &amp; exams",
		"<table><tr><td>",
		"point of information",
		"<strong>4</strong>",
		"</tr></table>",
	}
	for _, want := range wants {
		if !strings.Contains(markup, want) {
			t.Errorf("markup missing %q:\n%s", want, markup)
		}
	}
	if strings.Contains(markup, "<strong>not actually bold") {
		t.Errorf("markup bolded a run with an explicit off toggle:\n%s", markup)
	}
}

func TestService_Render_text(t *testing.T) {
	_, text := renderSample(t)

	wants := []string{
		"Student Name: Alex",
		"This house would ban homework & exams",
		"point of information",
	}
	for _, want := range wants {
		if !strings.Contains(text, want) {
			t.Errorf("text missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "<") {
		t.Errorf("text rendering contains markup:\n%s", text)
	}

	// the name line and the motion line must be distinct lines
	lines := strings.Split(text, "\n")
	if len(lines) < 2 || !strings.Contains(lines[0], "Student Name: Alex") {
		t.Errorf("unexpected line structure:\n%s", text)
	}
}

func TestService_Render_unreadable(t *testing.T) {
	svc := NewService(testutil.NewTestLogger(t), 5*time.Second)

	t.Run("missing file", func(t *testing.T) {
		_, err := svc.Render(context.Background(), filepath.Join(t.TempDir(), "nope.docx"))
		if !core.IsUnreadableDocument(err) {
			t.Errorf("Render() error = %v, want unreadable document", err)
		}
	})

	t.Run("not a zip archive", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "broken.docx")
		if err := os.WriteFile(path, []byte("this is not a zip archive"), 0o644); err != nil {
			t.Fatal(err)
		}
		_, err := svc.Render(context.Background(), path)
		if !core.IsUnreadableDocument(err) {
			t.Errorf("Render() error = %v, want unreadable document", err)
		}
	})

	t.Run("archive without document.xml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "empty.docx")
		f, err := os.Create(path)
		if err != nil {
			t.Fatal(err)
		}
		f.Close()
		// an empty file is also not a valid archive
		_, err = svc.Render(context.Background(), path)
		if !core.IsUnreadableDocument(err) {
			t.Errorf("Render() error = %v, want unreadable document", err)
		}
	})
}
