package feedback

import (
	"context"
	"fmt"
	"net/mail"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/ukuaji/core"
	"github.com/trezcool/ukuaji/core/student"
)

type (
	// Rendering is the dual view of one document: a markup rendering that
	// preserves emphasis and table structure, and a raw text rendering.
	Rendering struct {
		Markup string
		Text   string
	}

	// Renderer converts a .docx file into its dual renderings. Implementations
	// must honour ctx cancellation and report conversion failures as
	// unreadable-document errors.
	Renderer interface {
		Render(ctx context.Context, path string) (Rendering, error)
	}

	// Pipeline drives a batch import: walk the corpus, render each document
	// once, locate and extract every student's feedback blocks, then reconcile
	// them into the store per student.
	Pipeline struct {
		conf     *core.Config
		logger   core.Logger
		renderer Renderer
		students *student.Service
		writer   *Service
		mailSvc  core.EmailService
	}

	// RunStats is the batch summary: documents seen vs skipped, records
	// extracted and the write reconciliation counts.
	RunStats struct {
		Documents  int
		Unreadable int
		Records    int
		Write      WriteStats

		// SkippedAmbiguous lists roster names excluded because their first
		// name collides with another student's.
		SkippedAmbiguous []string
		// Uncovered lists census first names whose stored count is lower than
		// the number of feedback blocks seen in the corpus.
		Uncovered []string
	}

	censusKey struct {
		instructor string
		typ        Type
		first      string
	}
)

func NewPipeline(
	conf *core.Config,
	logger core.Logger,
	renderer Renderer,
	students *student.Service,
	writer *Service,
	mailSvc core.EmailService,
) *Pipeline {
	return &Pipeline{
		conf:     conf,
		logger:   logger,
		renderer: renderer,
		students: students,
		writer:   writer,
		mailSvc:  mailSvc,
	}
}

// Run executes one batch import over the corpus rooted at root. A missing
// root is fatal; a document that cannot be rendered is logged and skipped.
// Cancellation is honoured between documents, never mid-document.
func (p *Pipeline) Run(ctx context.Context, root string) (*RunStats, error) {
	if err := p.students.Load(ctx); err != nil {
		return nil, err
	}

	docs, err := FindDocs(root)
	if err != nil {
		return nil, err
	}
	p.logger.Info(fmt.Sprintf("found %d documents under %s", len(docs), root))

	stats := &RunStats{}
	census := make(map[censusKey]int)
	perStudent := make(map[string][]*Record) // keyed by student ID

	for _, path := range docs {
		if err := ctx.Err(); err != nil {
			return stats, core.NewShutdownError("import interrupted")
		}
		stats.Documents++

		rnd, err := p.renderer.Render(ctx, path)
		if err != nil {
			stats.Unreadable++
			p.logger.Warn(fmt.Sprintf("skipping %s: %v", path, err))
			continue
		}

		typ := TypeFromPath(path)
		instructor := Instructor(path, p.conf.KnownInstructors)
		p.collectDocument(path, rnd, typ, instructor, census, perStudent, stats)
	}

	// Write per student, in roster order so the batch log is reproducible.
	for _, s := range p.roster(TypePrimary) {
		stats.Write = stats.Write.add(p.writer.WriteAll(ctx, perStudent[s.ID]))
	}
	for _, s := range p.roster(TypeSecondary) {
		stats.Write = stats.Write.add(p.writer.WriteAll(ctx, perStudent[s.ID]))
	}

	p.compareCensus(ctx, census, stats)
	p.report(stats)
	return stats, nil
}

// collectDocument tallies every labeled name in one rendered document into
// the census, resolves each distinct spelling against the roster, and
// extracts the matching blocks. Names that cannot be resolved still count
// toward the census so the coverage check surfaces them.
func (p *Pipeline) collectDocument(
	path string,
	rnd Rendering,
	typ Type,
	instructor string,
	census map[censusKey]int,
	perStudent map[string][]*Record,
	stats *RunStats,
) {
	classCode := ClassCode(path)
	unit, lesson := UnitLesson(path)

	var spellings []string
	tally := make(map[string]int)
	for _, raw := range scanNames(rnd.Text, typ) {
		folded := core.CleanString(raw, true /* lower */)
		if _, ok := tally[folded]; !ok {
			spellings = append(spellings, raw)
		}
		tally[folded]++
	}

	collected := make(map[string]bool) // student IDs already extracted
	for _, raw := range spellings {
		folded := core.CleanString(raw, true /* lower */)

		s, err := p.students.Resolve(raw)
		if err != nil {
			census[censusKey{instructor, typ, folded}] += tally[folded]
			if aerr, ok := pkgerrors.Cause(err).(*student.AmbiguousNameError); ok {
				for _, n := range aerr.Matches {
					p.markSkipped(stats, n)
				}
			} else {
				p.logger.Warn(fmt.Sprintf("%s: %q matches no roster entry", path, raw))
			}
			continue
		}
		census[censusKey{instructor, typ, core.CleanString(s.FirstName(), true /* lower */)}] += tally[folded]

		if s.IsSecondary() != (typ == TypeSecondary) {
			p.logger.Warn(fmt.Sprintf("%s: %s is not on the %s program", path, s.Name, typ))
			continue
		}
		// The first spelling that yields blocks is authoritative; further
		// spellings of the same student surface through the census instead.
		if collected[s.ID] {
			continue
		}
		segs := Locate(rnd.Markup, rnd.Text, raw, typ)
		if len(segs) == 0 {
			continue
		}
		collected[s.ID] = true

		for _, seg := range segs {
			rec := p.buildRecord(s, seg, typ, path, classCode, unit, lesson, instructor)
			perStudent[s.ID] = append(perStudent[s.ID], rec)
			stats.Records++
		}
	}
}

func (p *Pipeline) buildRecord(
	s student.Student,
	seg Segment,
	typ Type,
	path, classCode, unit, lesson, instructor string,
) *Record {
	fs := Extract(seg, typ)

	rec := &Record{
		ID:           uuid.New().String(),
		StudentID:    s.ID,
		StudentName:  s.Name,
		Type:         typ,
		ClassCode:    classCode,
		ClassName:    typ.ClassName(),
		UnitNumber:   unit,
		LessonNumber: lesson,
		Topic:        fs.Topic,
		Motion:       fs.Motion,
		Duration:     fs.Duration,
		Instructor:   instructor,
		FilePath:     path,
		Occurrence:   seg.Occurrence,
	}

	// the speech prompt lands in both columns whichever format named it
	if typ == TypePrimary {
		rec.Motion = rec.Topic
		rec.WhatWasGood = fs.WhatWasGood
		rec.NeedsImprovement = fs.NeedsImprovement
		rec.RubricScores = map[string]string{
			"what_was_good":     yesNo(fs.WhatWasGood != ""),
			"needs_improvement": yesNo(fs.NeedsImprovement != ""),
		}
		rec.TeacherComments = primaryComments(fs)
	} else {
		rec.Topic = rec.Motion
		rec.TeacherComments = fs.Comments
		rec.RubricScores = fs.Scores
	}

	rec.UniqueID = rec.ComputeUniqueID()
	rec.Content = rec.BuildContent()
	return rec
}

// primaryComments folds the narrative answers into the comments column, the
// way the secondary format stores its free text.
func primaryComments(fs FieldSet) string {
	var parts []string
	if fs.WhatWasGood != "" {
		parts = append(parts, "What was good: "+fs.WhatWasGood)
	}
	if fs.NeedsImprovement != "" {
		parts = append(parts, "Needs improvement: "+fs.NeedsImprovement)
	}
	return strings.Join(parts, "\n\n")
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func (p *Pipeline) roster(typ Type) []student.Student {
	if typ == TypePrimary {
		return p.students.Primary()
	}
	return p.students.Secondary()
}

func (p *Pipeline) markSkipped(stats *RunStats, name string) {
	for _, n := range stats.SkippedAmbiguous {
		if n == name {
			return
		}
	}
	stats.SkippedAmbiguous = append(stats.SkippedAmbiguous, name)
	p.logger.Warn(fmt.Sprintf("skipping %s: first name matches more than one student", name))
}

// compareCensus checks the corpus tally against the stored per-first-name
// counts and reports any first name whose store lags the corpus.
func (p *Pipeline) compareCensus(ctx context.Context, census map[censusKey]int, stats *RunStats) {
	type scope struct {
		instructor string
		typ        Type
	}
	stored := make(map[scope]map[string]int)

	keys := make([]censusKey, 0, len(census))
	for k := range census {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].instructor != keys[j].instructor {
			return keys[i].instructor < keys[j].instructor
		}
		if keys[i].typ != keys[j].typ {
			return keys[i].typ < keys[j].typ
		}
		return keys[i].first < keys[j].first
	})

	for _, k := range keys {
		sc := scope{k.instructor, k.typ}
		counts, ok := stored[sc]
		if !ok {
			var err error
			counts, err = p.writer.CountByFirstName(ctx, k.instructor, k.typ)
			if err != nil {
				p.logger.Warn(fmt.Sprintf("census check failed for %s/%s", k.instructor, k.typ), err)
				return
			}
			stored[sc] = counts
		}
		if have := counts[k.first]; have < census[k] {
			stats.Uncovered = append(stats.Uncovered, k.first)
			p.logger.Warn(fmt.Sprintf(
				"coverage gap for %s (%s, %s): %d in files, %d stored",
				k.first, k.instructor, k.typ, census[k], have,
			))
		}
	}
}

// report logs the batch summary and mails it when recipients are configured.
func (p *Pipeline) report(stats *RunStats) {
	body := stats.Summary()
	p.logger.Info(body)

	if p.mailSvc == nil || len(p.conf.ReportRecipients) == 0 {
		return
	}
	to := make([]mail.Address, 0, len(p.conf.ReportRecipients))
	for _, addr := range p.conf.ReportRecipients {
		to = append(to, mail.Address{Address: addr})
	}
	p.mailSvc.SendMessages(&core.EmailMessage{
		To:      to,
		Subject: fmt.Sprintf("%s import report", p.conf.AppName),
		BodyStr: body,
	})
}

func (s *RunStats) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "import finished: %d documents (%d unreadable), %d records\n", s.Documents, s.Unreadable, s.Records)
	fmt.Fprintf(&b, "inserted %d, updated %d, failed %d", s.Write.Inserted, s.Write.Updated, s.Write.Failed)
	if len(s.SkippedAmbiguous) > 0 {
		fmt.Fprintf(&b, "\nskipped (ambiguous first name): %s", strings.Join(s.SkippedAmbiguous, ", "))
	}
	if len(s.Uncovered) > 0 {
		fmt.Fprintf(&b, "\ncoverage gaps: %s", strings.Join(s.Uncovered, ", "))
	}
	return b.String()
}

func (ws WriteStats) add(other WriteStats) WriteStats {
	ws.Inserted += other.Inserted
	ws.Updated += other.Updated
	ws.Failed += other.Failed
	return ws
}

// FindDocs walks root and returns the .docx files in walk order, skipping
// Office lock files ("~$" prefix) and underscore-prefixed directories.
func FindDocs(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "corpus root %s", root)
	}
	if !info.IsDir() {
		return nil, pkgerrors.Errorf("corpus root %s is not a directory", root)
	}

	var docs []string
	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		name := info.Name()
		if info.IsDir() {
			if strings.HasPrefix(name, "_") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, "~$") || !strings.EqualFold(filepath.Ext(name), ".docx") {
			return nil
		}
		docs = append(docs, path)
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(err, "walking corpus")
	}
	return docs, nil
}
