package testutil

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/perftracker/core"
	"github.com/trezcool/perftracker/core/roster"
	"github.com/trezcool/perftracker/storage/database"
)

// PrepareDB opens a migrated in-memory SQLite database, closed when the test ends.
func PrepareDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.Open(core.DatabaseConfig{Engine: database.EngineSQLite, Path: ":memory:"})
	if err != nil {
		t.Fatalf("prepareDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := database.Migrate(context.Background(), db); err != nil {
		t.Fatalf("prepareDB() failed: %v", err)
	}
	return db
}

// CreateStudent adds a student through repo and records the optional grades, given as subject/score pairs.
func CreateStudent(t *testing.T, repo roster.Repository, name, roll string, grades ...roster.Grade) roster.Student {
	t.Helper()
	ctx := context.Background()
	s := roster.Student{RollNumber: roll, Name: name}
	if err := repo.CreateStudent(ctx, s); err != nil {
		t.Fatalf("createStudent() failed: %v", err)
	}
	for _, g := range grades {
		g.RollNumber = roll
		if err := repo.UpsertGrade(ctx, g); err != nil {
			t.Fatalf("createStudent() failed: %v", err)
		}
		s.Grades = append(s.Grades, g)
	}
	return s
}

// CreateSubjects registers names through repo.
func CreateSubjects(t *testing.T, repo roster.Repository, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := repo.CreateSubject(context.Background(), name); err != nil {
			t.Fatalf("createSubjects() failed: %v", err)
		}
	}
}
