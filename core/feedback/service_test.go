package feedback

import (
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/trezcool/ukuaji/core"
	testutil "github.com/trezcool/ukuaji/tests"
)

// fakeRepository is an in-memory Repository keyed by unique_id, shared by the
// writer and pipeline tests.
type fakeRepository struct {
	stored map[string]Record
	failOn map[string]bool
	order  []string
}

var _ Repository = (*fakeRepository)(nil)

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		stored: make(map[string]Record),
		failOn: make(map[string]bool),
	}
}

func (r *fakeRepository) UpsertRecord(_ context.Context, rec *Record) (bool, error) {
	if r.failOn[rec.UniqueID] {
		return false, errors.New("store rejected the record")
	}
	_, exists := r.stored[rec.UniqueID]
	r.stored[rec.UniqueID] = *rec
	r.order = append(r.order, rec.UniqueID)
	return !exists, nil
}

func (r *fakeRepository) QueryRecords(_ context.Context, filter QueryFilter, _ ...core.DBOrdering) ([]Record, error) {
	var recs []Record
	for _, rec := range r.stored {
		if filter.StudentName != "" && rec.StudentName != filter.StudentName {
			continue
		}
		if filter.Instructor != "" && rec.Instructor != filter.Instructor {
			continue
		}
		if filter.Type != "" && rec.Type != filter.Type {
			continue
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func (r *fakeRepository) CountByFirstName(_ context.Context, instructor string, typ Type) (map[string]int, error) {
	counts := make(map[string]int)
	for _, rec := range r.stored {
		if rec.Instructor != instructor || rec.Type != typ {
			continue
		}
		first := strings.ToLower(strings.SplitN(rec.StudentName, " ", 2)[0])
		counts[first]++
	}
	return counts, nil
}

func (r *fakeRepository) DistinctGroups(_ context.Context) ([]Group, error) {
	byGroup := make(map[Group]int)
	for _, rec := range r.stored {
		g := Group{
			StudentName: rec.StudentName,
			ClassCode:   rec.ClassCode,
			UnitNumber:  rec.UnitNumber,
			Type:        rec.Type,
		}
		byGroup[g]++
	}
	groups := make([]Group, 0, len(byGroup))
	for g, n := range byGroup {
		g.Count = n
		groups = append(groups, g)
	}
	return groups, nil
}

func testRecord(name, unit, lesson string, occ int) *Record {
	rec := &Record{
		StudentName:  name,
		Type:         TypeSecondary,
		ClassCode:    "21PSDAB1234",
		UnitNumber:   unit,
		LessonNumber: lesson,
		Occurrence:   occ,
		FilePath:     "/data/Feedback " + unit + "." + lesson + ".docx",
		Instructor:   "Srijan",
	}
	rec.UniqueID = rec.ComputeUniqueID()
	return rec
}

func TestService_WriteAll(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	svc := NewService(repo, testutil.NewTestLogger(t))

	recs := []*Record{
		testRecord("Alex Johnson", "2", "4", 0),
		testRecord("Alex Johnson", "1", "1", 0),
		testRecord("Alex Johnson", "2", "4", 1),
	}

	stats := svc.WriteAll(ctx, recs)
	if stats.Inserted != 3 || stats.Updated != 0 || stats.Failed != 0 {
		t.Fatalf("WriteAll() = %+v, want 3 inserted", stats)
	}

	// records are written in (unit, lesson, occurrence) order
	wantFirst := testRecord("Alex Johnson", "1", "1", 0).UniqueID
	if repo.order[0] != wantFirst {
		t.Errorf("first written record = %s, want the lowest unit", repo.order[0])
	}

	// a re-run of the same batch reconciles instead of duplicating
	stats = svc.WriteAll(ctx, recs)
	if stats.Inserted != 0 || stats.Updated != 3 || stats.Failed != 0 {
		t.Fatalf("WriteAll() rerun = %+v, want 3 updated", stats)
	}
	if len(repo.stored) != 3 {
		t.Errorf("store holds %d records, want 3", len(repo.stored))
	}
}

func TestService_WriteAllIsolatesFailures(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	svc := NewService(repo, testutil.NewTestLogger(t))

	recs := []*Record{
		testRecord("Alex Johnson", "1", "1", 0),
		testRecord("Alex Johnson", "2", "4", 0),
		testRecord("Alex Johnson", "3", "2", 0),
	}
	repo.failOn[recs[1].UniqueID] = true

	stats := svc.WriteAll(ctx, recs)
	if stats.Inserted != 2 || stats.Failed != 1 {
		t.Fatalf("WriteAll() = %+v, want 2 inserted and 1 failed", stats)
	}
	if len(repo.stored) != 2 {
		t.Errorf("store holds %d records, want 2", len(repo.stored))
	}
}

func TestWriteError(t *testing.T) {
	err := &WriteError{Unit: "2", Lesson: "4", Err: errors.New("boom")}
	if !IsWriteError(err) {
		t.Error("IsWriteError() = false for a WriteError")
	}
	if !IsWriteError(errors.Wrap(err, "outer")) {
		t.Error("IsWriteError() = false for a wrapped WriteError")
	}
	if IsWriteError(errors.New("boom")) {
		t.Error("IsWriteError() = true for an unrelated error")
	}
	if !strings.Contains(err.Error(), "unit 2.4") {
		t.Errorf("Error() = %q, missing unit context", err.Error())
	}
}
