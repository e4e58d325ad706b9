package student

import (
	"context"
	"testing"
)

type stubRepository struct {
	roster []Student
}

func (r stubRepository) CreateStudent(_ context.Context, s Student) (Student, error) {
	r.roster = append(r.roster, s)
	return s, nil
}

func (r stubRepository) QueryAllStudents(_ context.Context) ([]Student, error) {
	return r.roster, nil
}

func loadedService(t *testing.T) *Service {
	svc := NewService(stubRepository{roster: []Student{
		{ID: "1", Name: "Alex Johnson", Grade: "Grade 8"},
		{ID: "2", Name: "Ben Smith", Grade: "Grade 3"},
		{ID: "3", Name: "Sam Lee", Grade: "Grade 8"},
		{ID: "4", Name: "Sam Park", Grade: "Grade 9"},
		{ID: "5", Name: "Selina Kim", Grade: "Grade 7"},
	}})
	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	return svc
}

func TestService_Resolve(t *testing.T) {
	svc := loadedService(t)

	tests := []struct {
		name     string
		input    string
		wantID   string
		wantErr  error
		wantAmbi bool
	}{
		{name: "full name", input: "Alex Johnson", wantID: "1"},
		{name: "full name case-insensitive", input: "alex johnson", wantID: "1"},
		{name: "first name", input: "Ben", wantID: "2"},
		{name: "misspelled first name", input: "Selena", wantID: "5"},
		{name: "ambiguous first name", input: "Sam", wantAmbi: true},
		{name: "unknown", input: "Zanele", wantErr: ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := svc.Resolve(tt.input)
			if tt.wantAmbi {
				if !IsAmbiguousName(err) {
					t.Fatalf("Resolve() error = %v, want AmbiguousNameError", err)
				}
				return
			}
			if err != tt.wantErr {
				t.Fatalf("Resolve() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && s.ID != tt.wantID {
				t.Errorf("Resolve() = %s, want %s", s.ID, tt.wantID)
			}
		})
	}
}

func TestService_programSplit(t *testing.T) {
	svc := loadedService(t)

	if got := len(svc.Primary()); got != 1 {
		t.Errorf("Primary() returned %d students, want 1", got)
	}
	if got := len(svc.Secondary()); got != 4 {
		t.Errorf("Secondary() returned %d students, want 4", got)
	}
}

func TestService_ResolveAlias(t *testing.T) {
	svc := loadedService(t)

	// a nickname too far from the roster spelling for the close-spelling
	// matcher; only the alias table can bridge it
	orig := Aliases
	Aliases = map[string][]string{"Alex": {"AJ"}}
	t.Cleanup(func() { Aliases = orig })

	s, err := svc.Resolve("AJ")
	if err != nil {
		t.Fatalf("Resolve(AJ) failed: %v", err)
	}
	if s.ID != "1" {
		t.Errorf("Resolve(AJ) = %s, want Alex Johnson", s.Name)
	}
}

func TestStudent_IsSecondary(t *testing.T) {
	tests := []struct {
		grade string
		want  bool
	}{
		{"Grade 8", true},
		{"Grade 7", true},
		{"Grade 6", false},
		{"Grade 3", false},
		{"", false},
		{"lol", false},
	}
	for _, tt := range tests {
		t.Run(tt.grade, func(t *testing.T) {
			s := Student{Grade: tt.grade}
			if got := s.IsSecondary(); got != tt.want {
				t.Errorf("IsSecondary() = %v, want %v", got, tt.want)
			}
		})
	}
}
