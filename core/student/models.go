package student

import (
	"strconv"
	"strings"
)

// Student is one roster entry from the durable store.
type Student struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Grade string `json:"grade"` // e.g. "Grade 8"
}

func (s Student) FirstName() string {
	return strings.SplitN(strings.TrimSpace(s.Name), " ", 2)[0]
}

// GradeNumber parses the numeric part of Grade; 0 when absent or malformed.
func (s Student) GradeNumber() int {
	fields := strings.Fields(s.Grade)
	if len(fields) < 2 {
		return 0
	}
	n, err := strconv.Atoi(fields[len(fields)-1])
	if err != nil {
		return 0
	}
	return n
}

// IsSecondary reports whether the student follows the rubric-scored secondary
// program (Grade 7 and up); everyone else is primary.
func (s Student) IsSecondary() bool {
	return s.GradeNumber() >= 7
}

// Aliases maps a roster first name to the nickname misspellings some years'
// documents use for it.
var Aliases = map[string][]string{
	"Selina": {"Selena"},
}
