package docrendersvc

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"html"
	"io"
	"io/ioutil"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/ukuaji/core"
	"github.com/trezcool/ukuaji/core/feedback"
)

// Service renders .docx documents into the dual markup/text views by walking
// word/document.xml straight out of the ZIP archive. Rendering never shells
// out; a document the walker cannot read is an unreadable-document error.
type Service struct {
	logger  core.Logger
	timeout time.Duration
}

var _ feedback.Renderer = (*Service)(nil)

func NewService(logger core.Logger, timeout time.Duration) *Service {
	return &Service{logger: logger, timeout: timeout}
}

// Render produces both renderings of the document. The two walks run
// concurrently over the same extracted XML; the whole conversion is bounded by
// the configured timeout, after which the document counts as unreadable.
func (svc *Service) Render(ctx context.Context, path string) (feedback.Rendering, error) {
	if svc.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, svc.timeout)
		defer cancel()
	}

	type result struct {
		rnd feedback.Rendering
		err error
	}
	done := make(chan result, 1)
	go func() {
		rnd, err := renderFile(path)
		done <- result{rnd, err}
	}()

	svc.logger.Debug("rendering " + path)
	select {
	case <-ctx.Done():
		return feedback.Rendering{}, core.NewUnreadableDocumentError(path, ctx.Err())
	case res := <-done:
		if res.err != nil {
			return feedback.Rendering{}, core.NewUnreadableDocumentError(path, res.err)
		}
		return res.rnd, nil
	}
}

func renderFile(path string) (feedback.Rendering, error) {
	doc, err := readDocumentXML(path)
	if err != nil {
		return feedback.Rendering{}, err
	}

	var (
		rnd       feedback.Rendering
		markupErr error
		textErr   error
		wg        sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		rnd.Markup, markupErr = walkMarkup(doc)
	}()
	go func() {
		defer wg.Done()
		rnd.Text, textErr = walkText(doc)
	}()
	wg.Wait()

	if markupErr != nil {
		return feedback.Rendering{}, markupErr
	}
	if textErr != nil {
		return feedback.Rendering{}, textErr
	}
	return rnd, nil
}

// readDocumentXML pulls word/document.xml out of the .docx ZIP archive.
func readDocumentXML(path string) ([]byte, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening archive")
	}
	defer r.Close()

	for _, f := range r.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, errors.Wrap(err, "opening document.xml")
		}
		defer rc.Close()
		data, err := ioutil.ReadAll(rc)
		if err != nil {
			return nil, errors.Wrap(err, "reading document.xml")
		}
		return data, nil
	}
	return nil, errors.New("word/document.xml not found in archive")
}

// walkMarkup renders the document as simplified markup: paragraphs, table
// structure and bold emphasis survive, everything else is dropped. The
// extractor's rubric-table and label heuristics depend on exactly these tags.
func walkMarkup(doc []byte) (string, error) {
	decoder := xml.NewDecoder(strings.NewReader(string(doc)))

	var (
		b       strings.Builder
		inRPr   bool
		runBold bool
		inText  bool
		inTable int
		inPara  bool
	)
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", errors.Wrap(err, "parsing document.xml")
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				inTable++
				b.WriteString("<table>")
			case "tr":
				if inTable > 0 {
					b.WriteString("<tr>")
				}
			case "tc":
				if inTable > 0 {
					b.WriteString("<td>")
				}
			case "p":
				inPara = true
				if inTable == 0 {
					b.WriteString("<p>")
				}
			case "r":
				runBold = false
			case "rPr":
				inRPr = true
			case "b":
				if inRPr {
					runBold = boldOn(t)
				}
			case "t":
				inText = inPara
			case "br":
				b.WriteString("\n")
			case "tab":
				b.WriteString(" ")
			}

		case xml.CharData:
			if inText {
				text := html.EscapeString(string(t))
				if runBold {
					b.WriteString("<strong>")
					b.WriteString(text)
					b.WriteString("</strong>")
				} else {
					b.WriteString(text)
				}
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "tbl":
				if inTable > 0 {
					inTable--
					b.WriteString("</table>")
				}
			case "tr":
				if inTable > 0 {
					b.WriteString("</tr>")
				}
			case "tc":
				if inTable > 0 {
					b.WriteString("</td>")
				}
			case "p":
				inPara = false
				if inTable == 0 {
					b.WriteString("</p>\n")
				} else {
					b.WriteString(" ")
				}
			case "rPr":
				inRPr = false
			case "t":
				inText = false
			}
		}
	}
	return b.String(), nil
}

// walkText renders the document as plain text: one line per paragraph, table
// cells separated by single spaces.
func walkText(doc []byte) (string, error) {
	decoder := xml.NewDecoder(strings.NewReader(string(doc)))

	var (
		b      strings.Builder
		inText bool
		inPara bool
	)
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", errors.Wrap(err, "parsing document.xml")
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				inPara = true
			case "t":
				inText = inPara
			case "br":
				b.WriteString("\n")
			case "tab":
				b.WriteString(" ")
			case "tc":
				b.WriteString(" ")
			}

		case xml.CharData:
			if inText {
				b.Write(t)
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "p":
				inPara = false
				b.WriteString("\n")
			case "t":
				inText = false
			}
		}
	}
	return strings.TrimSpace(b.String()), nil
}

// boldOn reads the optional w:val toggle on a w:b property; absence means on.
func boldOn(t xml.StartElement) bool {
	for _, attr := range t.Attr {
		if attr.Name.Local == "val" {
			return attr.Value != "0" && !strings.EqualFold(attr.Value, "false")
		}
	}
	return true
}
