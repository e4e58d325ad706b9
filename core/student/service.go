package student

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/ukuaji/core"
)

var (
	// errors
	ErrNotFound = errors.New("student not found")
)

// AmbiguousNameError is returned when a name resolves to more than one roster
// entry with no disambiguation signal. Callers must skip with a warning rather
// than guess: silently attributing feedback to the wrong learner is worse than
// importing nothing.
type AmbiguousNameError struct {
	Name    string
	Matches []string
}

func (e *AmbiguousNameError) Error() string {
	return fmt.Sprintf("name %q matches more than one student: %s", e.Name, strings.Join(e.Matches, ", "))
}

func IsAmbiguousName(err error) bool {
	_, ok := pkgerrors.Cause(err).(*AmbiguousNameError)
	return ok
}

type (
	Repository interface {
		CreateStudent(ctx context.Context, s Student) (Student, error)
		QueryAllStudents(ctx context.Context) ([]Student, error)
	}

	// Service holds the roster queried once before a batch run and resolves
	// document-derived names to roster entries.
	Service struct {
		repo Repository

		roster  []Student
		byFirst map[string][]Student
		byFull  map[string]Student
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Load queries the roster and builds the name indexes. Must be called before
// Resolve/Primary/Secondary.
func (svc *Service) Load(ctx context.Context) error {
	roster, err := svc.repo.QueryAllStudents(ctx)
	if err != nil {
		return pkgerrors.Wrap(err, "loading student roster")
	}
	svc.roster = roster
	svc.byFirst = make(map[string][]Student, len(roster))
	svc.byFull = make(map[string]Student, len(roster))
	for _, s := range roster {
		first := core.CleanString(s.FirstName(), true /* lower */)
		svc.byFirst[first] = append(svc.byFirst[first], s)
		svc.byFull[core.CleanString(s.Name, true /* lower */)] = s
	}
	return nil
}

func (svc *Service) All() []Student { return svc.roster }

// Primary returns the roster entries on the narrative-only primary program.
func (svc *Service) Primary() []Student {
	return svc.filter(func(s Student) bool { return !s.IsSecondary() })
}

// Secondary returns the roster entries on the rubric-scored secondary program.
func (svc *Service) Secondary() []Student {
	return svc.filter(func(s Student) bool { return s.IsSecondary() })
}

func (svc *Service) filter(keep func(Student) bool) []Student {
	out := make([]Student, 0, len(svc.roster))
	for _, s := range svc.roster {
		if keep(s) {
			out = append(out, s)
		}
	}
	return out
}

// minimum character-level similarity for a misspelled first name to resolve
const fuzzyMatchRatio = 0.8

// Resolve maps a document-derived name to a roster entry: exact full-name
// match first, then first-name match, then known alias spellings, then a
// close-spelling match (document authors misspell first names). A first name
// shared by several students yields an AmbiguousNameError.
func (svc *Service) Resolve(name string) (Student, error) {
	cleaned := core.CleanString(name, true /* lower */)
	if s, ok := svc.byFull[cleaned]; ok {
		return s, nil
	}
	first := strings.SplitN(cleaned, " ", 2)[0]
	matches := svc.byFirst[first]
	if len(matches) == 0 {
		matches = svc.aliased(first)
	}
	if len(matches) == 0 {
		matches = svc.closest(first)
	}
	switch len(matches) {
	case 0:
		return Student{}, ErrNotFound
	case 1:
		return matches[0], nil
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m.Name)
	}
	return Student{}, &AmbiguousNameError{Name: name, Matches: names}
}

// aliased returns the roster entries whose first name is known to appear in
// documents under the given spelling.
func (svc *Service) aliased(first string) []Student {
	for canonical, spellings := range Aliases {
		for _, spelling := range spellings {
			if strings.EqualFold(spelling, first) {
				return svc.byFirst[core.CleanString(canonical, true /* lower */)]
			}
		}
	}
	return nil
}

// closest returns the roster entries whose first name is a near-miss spelling
// of first, at the highest similarity ratio above the threshold.
func (svc *Service) closest(first string) []Student {
	var (
		best      []Student
		bestRatio float64
	)
	for indexed, matches := range svc.byFirst {
		ratio := difflib.NewMatcher(strings.Split(first, ""), strings.Split(indexed, "")).QuickRatio()
		if ratio < fuzzyMatchRatio || ratio < bestRatio {
			continue
		}
		if ratio > bestRatio {
			bestRatio = ratio
			best = best[:0]
		}
		best = append(best, matches...)
	}
	return best
}
