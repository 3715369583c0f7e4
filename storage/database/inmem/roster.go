package inmemdb

import (
	"context"

	"github.com/trezcool/perftracker/core/roster"
)

type rosterRepository struct {
	db *DB
}

var _ roster.Repository = (*rosterRepository)(nil) // interface compliance check

func NewRosterRepository(db *DB) roster.Repository {
	return &rosterRepository{db: db}
}

func (repo *rosterRepository) student(roll string, row *studentRow) roster.Student {
	s := roster.Student{RollNumber: roll, Name: row.name}
	if len(row.grades) > 0 {
		s.Grades = make([]roster.Grade, 0, len(row.grades))
		for subj, score := range row.grades {
			s.Grades = append(s.Grades, roster.Grade{RollNumber: roll, Subject: subj, Score: score})
		}
	}
	return s
}

func (repo *rosterRepository) CreateStudent(_ context.Context, student roster.Student) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.students[student.RollNumber]; ok {
		return roster.ErrStudentExists
	}
	repo.db.students[student.RollNumber] = &studentRow{name: student.Name, grades: make(map[string]float64)}
	return nil
}

func (repo *rosterRepository) GetStudent(_ context.Context, rollNumber string) (roster.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if row, ok := repo.db.students[rollNumber]; ok {
		return repo.student(rollNumber, row), nil
	}
	return roster.Student{}, roster.ErrStudentNotFound
}

func (repo *rosterRepository) QueryStudents(_ context.Context) ([]roster.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	students := make([]roster.Student, 0, len(repo.db.students))
	for roll, row := range repo.db.students {
		students = append(students, repo.student(roll, row))
	}
	return students, nil
}

func (repo *rosterRepository) DeleteStudent(_ context.Context, rollNumber string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.students[rollNumber]; !ok {
		return roster.ErrStudentNotFound
	}
	delete(repo.db.students, rollNumber) // grades go with the row
	return nil
}

func (repo *rosterRepository) UpsertGrade(_ context.Context, grade roster.Grade) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	row, ok := repo.db.students[grade.RollNumber]
	if !ok {
		return roster.ErrStudentNotFound
	}
	row.grades[grade.Subject] = grade.Score
	return nil
}

func (repo *rosterRepository) QuerySubjectGrades(_ context.Context, subject string) ([]roster.SubjectGrade, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var grades []roster.SubjectGrade
	for roll, row := range repo.db.students {
		if score, ok := row.grades[subject]; ok {
			grades = append(grades, roster.SubjectGrade{RollNumber: roll, Name: row.name, Score: score})
		}
	}
	return grades, nil
}

func (repo *rosterRepository) CreateSubject(_ context.Context, name string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.subjects[name]; ok {
		return roster.ErrSubjectExists
	}
	repo.db.subjects[name] = struct{}{}
	return nil
}

func (repo *rosterRepository) QuerySubjects(_ context.Context) ([]string, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	names := make([]string, 0, len(repo.db.subjects))
	for name := range repo.db.subjects {
		names = append(names, name)
	}
	return names, nil
}

func (repo *rosterRepository) DeleteSubject(_ context.Context, name string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.subjects[name]; !ok {
		return roster.ErrSubjectNotFound
	}
	for _, row := range repo.db.students {
		delete(row.grades, name)
	}
	delete(repo.db.subjects, name)
	return nil
}

func (repo *rosterRepository) SeedSubjects(_ context.Context, names ...string) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if len(repo.db.subjects) > 0 {
		return 0, nil
	}
	for _, name := range names {
		repo.db.subjects[name] = struct{}{}
	}
	return len(repo.db.subjects), nil
}
