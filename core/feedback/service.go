package feedback

import (
	"context"
	"fmt"

	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/ukuaji/core"
)

// WriteError wraps a store rejection with the unit/lesson context the batch
// log reports. Recovered per record: counted, never a hard stop.
type WriteError struct {
	Unit   string
	Lesson string
	Err    error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("writing feedback for unit %s.%s: %v", e.Unit, e.Lesson, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

func IsWriteError(err error) bool {
	_, ok := pkgerrors.Cause(err).(*WriteError)
	return ok
}

type (
	// QueryFilter applies AND on its non-zero fields; this is the read
	// contract the reporting layers consume.
	QueryFilter struct {
		StudentName string
		Instructor  string
		Type        Type
	}

	// Group is one distinct (student, class, unit, type) bucket used by
	// duplicate analysis.
	Group struct {
		StudentName string
		ClassCode   string
		UnitNumber  string
		Type        Type
		Count       int
	}

	Repository interface {
		// UpsertRecord inserts the record keyed by its UniqueID, or updates
		// the mutable field subset (rubric scores, comments, duration,
		// content, motion, topic) when the key already exists; creation
		// metadata is left untouched. Reports whether it inserted.
		UpsertRecord(ctx context.Context, rec *Record) (inserted bool, err error)
		QueryRecords(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Record, error)
		// CountByFirstName tallies stored records per student first name for
		// one instructor and feedback type.
		CountByFirstName(ctx context.Context, instructor string, typ Type) (map[string]int, error)
		DistinctGroups(ctx context.Context) ([]Group, error)
	}

	// Service is the reconciling upsert writer: at-most-one logical row per
	// UniqueID, with insert/update/failure accounting for the batch report.
	Service struct {
		repo   Repository
		logger core.Logger
	}

	WriteStats struct {
		Inserted int
		Updated  int
		Failed   int
	}
)

func NewService(repo Repository, logger core.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// WriteAll persists one student's records, sorted by (unit, lesson,
// occurrence) first so progress logs and counts are reproducible. A failed
// write is logged with its unit/lesson context and does not abort the rest.
func (svc *Service) WriteAll(ctx context.Context, recs []*Record) WriteStats {
	SortRecords(recs)

	var stats WriteStats
	for _, rec := range recs {
		inserted, err := svc.repo.UpsertRecord(ctx, rec)
		if err != nil {
			stats.Failed++
			svc.logger.Error((&WriteError{Unit: rec.UnitNumber, Lesson: rec.LessonNumber, Err: err}).Error(), err)
			continue
		}
		if inserted {
			stats.Inserted++
		} else {
			stats.Updated++
		}
	}
	return stats
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Record, error) {
	return svc.repo.QueryRecords(ctx, filter, ordering...)
}

func (svc *Service) CountByFirstName(ctx context.Context, instructor string, typ Type) (map[string]int, error) {
	return svc.repo.CountByFirstName(ctx, instructor, typ)
}

func (svc *Service) DistinctGroups(ctx context.Context) ([]Group, error) {
	return svc.repo.DistinctGroups(ctx)
}
