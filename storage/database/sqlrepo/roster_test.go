package sqlrepo

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/perftracker/core/roster"
	"github.com/trezcool/perftracker/testutil"
)

func setup(t *testing.T) roster.Repository {
	return NewRosterRepository(testutil.PrepareDB(t))
}

func TestRosterRepository_CreateStudent(t *testing.T) {
	repo := setup(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateStudent(ctx, roster.Student{RollNumber: "A1", Name: "Alice"}))
	err := repo.CreateStudent(ctx, roster.Student{RollNumber: "A1", Name: "Someone Else"})
	assert.Equal(t, roster.ErrStudentExists, err)

	s, err := repo.GetStudent(ctx, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", s.Name)
	assert.Empty(t, s.Grades)
}

func TestRosterRepository_GetStudent(t *testing.T) {
	repo := setup(t)
	ctx := context.Background()

	_, err := repo.GetStudent(ctx, "nope")
	assert.Equal(t, roster.ErrStudentNotFound, err)

	testutil.CreateStudent(t, repo, "Alice", "A1",
		roster.Grade{Subject: "Science", Score: 90},
		roster.Grade{Subject: "Math", Score: 80},
	)
	s, err := repo.GetStudent(ctx, "A1")
	require.NoError(t, err)
	assert.Equal(t, []roster.Grade{
		{RollNumber: "A1", Subject: "Math", Score: 80},
		{RollNumber: "A1", Subject: "Science", Score: 90},
	}, s.Grades)
}

func TestRosterRepository_UpsertGrade(t *testing.T) {
	repo := setup(t)
	ctx := context.Background()

	err := repo.UpsertGrade(ctx, roster.Grade{RollNumber: "nope", Subject: "Math", Score: 50})
	assert.Equal(t, roster.ErrStudentNotFound, err)

	testutil.CreateStudent(t, repo, "Alice", "A1")
	require.NoError(t, repo.UpsertGrade(ctx, roster.Grade{RollNumber: "A1", Subject: "Math", Score: 55}))
	require.NoError(t, repo.UpsertGrade(ctx, roster.Grade{RollNumber: "A1", Subject: "Math", Score: 70}))

	s, err := repo.GetStudent(ctx, "A1")
	require.NoError(t, err)
	assert.Equal(t, []roster.Grade{{RollNumber: "A1", Subject: "Math", Score: 70}}, s.Grades)
}

func TestRosterRepository_UpsertGrade_outOfRange(t *testing.T) {
	repo := setup(t)
	ctx := context.Background()
	testutil.CreateStudent(t, repo, "Alice", "A1", roster.Grade{Subject: "Math", Score: 40})

	// the schema check rejects the score even if the service is bypassed
	assert.Error(t, repo.UpsertGrade(ctx, roster.Grade{RollNumber: "A1", Subject: "Math", Score: 100.01}))

	s, err := repo.GetStudent(ctx, "A1")
	require.NoError(t, err)
	assert.Equal(t, []roster.Grade{{RollNumber: "A1", Subject: "Math", Score: 40}}, s.Grades)
}

func TestRosterRepository_QueryStudents(t *testing.T) {
	repo := setup(t)
	ctx := context.Background()

	students, err := repo.QueryStudents(ctx)
	require.NoError(t, err)
	assert.Empty(t, students)

	testutil.CreateStudent(t, repo, "Bob", "B2", roster.Grade{Subject: "Math", Score: 95})
	testutil.CreateStudent(t, repo, "Alice", "A1")

	students, err = repo.QueryStudents(ctx)
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, "A1", students[0].RollNumber)
	assert.Empty(t, students[0].Grades)
	assert.Equal(t, "B2", students[1].RollNumber)
	assert.Equal(t, []roster.Grade{{RollNumber: "B2", Subject: "Math", Score: 95}}, students[1].Grades)
}

func TestRosterRepository_DeleteStudent(t *testing.T) {
	repo := setup(t)
	ctx := context.Background()

	testutil.CreateStudent(t, repo, "Alice", "A1", roster.Grade{Subject: "Math", Score: 80})
	testutil.CreateStudent(t, repo, "Bob", "B2", roster.Grade{Subject: "Math", Score: 95})

	require.NoError(t, repo.DeleteStudent(ctx, "A1"))
	assert.Equal(t, roster.ErrStudentNotFound, repo.DeleteStudent(ctx, "A1"))

	grades, err := repo.QuerySubjectGrades(ctx, "Math")
	require.NoError(t, err)
	assert.Equal(t, []roster.SubjectGrade{{RollNumber: "B2", Name: "Bob", Score: 95}}, grades)
}

func TestRosterRepository_subjects(t *testing.T) {
	repo := setup(t)
	ctx := context.Background()

	n, err := repo.SeedSubjects(ctx, roster.DefaultSubjects...)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = repo.SeedSubjects(ctx, "History")
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, repo.CreateSubject(ctx, "History"))
	assert.Equal(t, roster.ErrSubjectExists, repo.CreateSubject(ctx, "History"))

	names, err := repo.QuerySubjects(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"English", "History", "Math", "Science"}, names)
}

func TestRosterRepository_SeedSubjects_duplicates(t *testing.T) {
	repo := setup(t)

	n, err := repo.SeedSubjects(context.Background(), "Math", "Math", "Art")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	names, err := repo.QuerySubjects(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Art", "Math"}, names)
}

func TestRosterRepository_DeleteSubject(t *testing.T) {
	repo := setup(t)
	ctx := context.Background()

	assert.Equal(t, roster.ErrSubjectNotFound, repo.DeleteSubject(ctx, "Math"))

	testutil.CreateSubjects(t, repo, "Math", "Science")
	testutil.CreateStudent(t, repo, "Alice", "A1",
		roster.Grade{Subject: "Math", Score: 80},
		roster.Grade{Subject: "Science", Score: 70},
	)
	testutil.CreateStudent(t, repo, "Bob", "B2", roster.Grade{Subject: "Math", Score: 95})

	require.NoError(t, repo.DeleteSubject(ctx, "Math"))

	grades, err := repo.QuerySubjectGrades(ctx, "Math")
	require.NoError(t, err)
	assert.Empty(t, grades)

	s, err := repo.GetStudent(ctx, "A1")
	require.NoError(t, err)
	assert.Equal(t, []roster.Grade{{RollNumber: "A1", Subject: "Science", Score: 70}}, s.Grades)

	names, err := repo.QuerySubjects(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Science"}, names)
}

func TestRosterRepository_UpsertGrade_rollback(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })
	repo := NewRosterRepository(sqlx.NewDb(mockDB, "sqlmock"))

	failure := errors.New("disk I/O error")
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM students`).
		WithArgs("A1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec(`INSERT INTO grades`).
		WithArgs("A1", "Math", 70.0).
		WillReturnError(failure)
	mock.ExpectRollback()

	err = repo.UpsertGrade(context.Background(), roster.Grade{RollNumber: "A1", Subject: "Math", Score: 70})
	assert.Equal(t, failure, errors.Cause(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRosterRepository_DeleteSubject_rollback(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })
	repo := NewRosterRepository(sqlx.NewDb(mockDB, "sqlmock"))

	failure := errors.New("connection reset")
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM subjects`).
		WithArgs("Math").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM grades`).
		WithArgs("Math").
		WillReturnError(failure)
	mock.ExpectRollback()

	err = repo.DeleteSubject(context.Background(), "Math")
	assert.Equal(t, failure, errors.Cause(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
