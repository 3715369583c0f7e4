package sqlrepo

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/perftracker/core"
	"github.com/trezcool/perftracker/core/roster"
	"github.com/trezcool/perftracker/storage/database"
)

var (
	studentOrdering = core.DBOrdering{Field: "roll_number", Ascending: true}
	subjectOrdering = core.DBOrdering{Field: "name", Ascending: true}
)

type rosterRepository struct {
	db *sqlx.DB
}

var _ roster.Repository = (*rosterRepository)(nil) // interface compliance check

// NewRosterRepository returns a roster.Repository backed by SQLite or PostgreSQL.
// Queries are written with "?" placeholders and rebound for the driver.
func NewRosterRepository(db *sqlx.DB) roster.Repository {
	return &rosterRepository{db: db}
}

// trapNoRowsErr maps sql "no rows" err to notFound
func trapNoRowsErr(err error, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

func rowsAffected(res sql.Result, msg string) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, msg)
	}
	return n, nil
}

func (repo *rosterRepository) CreateStudent(ctx context.Context, student roster.Student) error {
	q := repo.db.Rebind(`INSERT INTO students (roll_number, name) VALUES (?, ?) ON CONFLICT (roll_number) DO NOTHING`)
	res, err := repo.db.ExecContext(ctx, q, student.RollNumber, student.Name)
	if err != nil {
		return errors.Wrap(err, "inserting student")
	}
	n, err := rowsAffected(res, "inserting student")
	if err != nil {
		return err
	}
	if n == 0 {
		return roster.ErrStudentExists
	}
	return nil
}

func (repo *rosterRepository) GetStudent(ctx context.Context, rollNumber string) (roster.Student, error) {
	var s roster.Student
	q := repo.db.Rebind(`SELECT roll_number, name FROM students WHERE roll_number = ?`)
	if err := repo.db.GetContext(ctx, &s, q, rollNumber); err != nil {
		return roster.Student{}, trapNoRowsErr(err, roster.ErrStudentNotFound, "finding student")
	}

	q = repo.db.Rebind(`SELECT roll_number, subject, score FROM grades WHERE roll_number = ? ORDER BY subject ASC`)
	if err := repo.db.SelectContext(ctx, &s.Grades, q, rollNumber); err != nil {
		return roster.Student{}, errors.Wrap(err, "querying student grades")
	}
	return s, nil
}

func (repo *rosterRepository) QueryStudents(ctx context.Context) ([]roster.Student, error) {
	var students []roster.Student
	q := `SELECT roll_number, name FROM students ORDER BY ` + studentOrdering.String()
	if err := repo.db.SelectContext(ctx, &students, q); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}

	var grades []roster.Grade
	if err := repo.db.SelectContext(ctx, &grades, `SELECT roll_number, subject, score FROM grades ORDER BY subject ASC`); err != nil {
		return nil, errors.Wrap(err, "querying grades")
	}
	byRoll := make(map[string][]roster.Grade, len(students))
	for _, g := range grades {
		byRoll[g.RollNumber] = append(byRoll[g.RollNumber], g)
	}
	for i := range students {
		students[i].Grades = byRoll[students[i].RollNumber]
	}
	return students, nil
}

func (repo *rosterRepository) DeleteStudent(ctx context.Context, rollNumber string) error {
	return database.WithTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		// grades also cascade through the foreign key; deleting them here keeps the
		// behaviour when foreign keys are not enforced.
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM grades WHERE roll_number = ?`), rollNumber); err != nil {
			return errors.Wrap(err, "deleting student grades")
		}
		res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM students WHERE roll_number = ?`), rollNumber)
		if err != nil {
			return errors.Wrap(err, "deleting student")
		}
		n, err := rowsAffected(res, "deleting student")
		if err != nil {
			return err
		}
		if n == 0 {
			return roster.ErrStudentNotFound
		}
		return nil
	})
}

func (repo *rosterRepository) UpsertGrade(ctx context.Context, grade roster.Grade) error {
	return database.WithTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		var cnt int
		if err := tx.GetContext(ctx, &cnt, tx.Rebind(`SELECT COUNT(*) FROM students WHERE roll_number = ?`), grade.RollNumber); err != nil {
			return errors.Wrap(err, "checking student")
		}
		if cnt == 0 {
			return roster.ErrStudentNotFound
		}

		q := tx.Rebind(`INSERT INTO grades (roll_number, subject, score) VALUES (?, ?, ?)
			ON CONFLICT (roll_number, subject) DO UPDATE SET score = excluded.score`)
		if _, err := tx.ExecContext(ctx, q, grade.RollNumber, grade.Subject, grade.Score); err != nil {
			return errors.Wrap(err, "upserting grade")
		}
		return nil
	})
}

func (repo *rosterRepository) QuerySubjectGrades(ctx context.Context, subject string) ([]roster.SubjectGrade, error) {
	var grades []roster.SubjectGrade
	q := repo.db.Rebind(`SELECT g.roll_number, s.name, g.score
		FROM grades g JOIN students s ON s.roll_number = g.roll_number
		WHERE g.subject = ?`)
	if err := repo.db.SelectContext(ctx, &grades, q, subject); err != nil {
		return nil, errors.Wrap(err, "querying subject grades")
	}
	return grades, nil
}

func (repo *rosterRepository) CreateSubject(ctx context.Context, name string) error {
	q := repo.db.Rebind(`INSERT INTO subjects (name) VALUES (?) ON CONFLICT (name) DO NOTHING`)
	res, err := repo.db.ExecContext(ctx, q, name)
	if err != nil {
		return errors.Wrap(err, "inserting subject")
	}
	n, err := rowsAffected(res, "inserting subject")
	if err != nil {
		return err
	}
	if n == 0 {
		return roster.ErrSubjectExists
	}
	return nil
}

func (repo *rosterRepository) QuerySubjects(ctx context.Context) ([]string, error) {
	var names []string
	if err := repo.db.SelectContext(ctx, &names, `SELECT name FROM subjects ORDER BY `+subjectOrdering.String()); err != nil {
		return nil, errors.Wrap(err, "querying subjects")
	}
	return names, nil
}

func (repo *rosterRepository) DeleteSubject(ctx context.Context, name string) error {
	return database.WithTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM subjects WHERE name = ?`), name)
		if err != nil {
			return errors.Wrap(err, "deleting subject")
		}
		n, err := rowsAffected(res, "deleting subject")
		if err != nil {
			return err
		}
		if n == 0 {
			return roster.ErrSubjectNotFound
		}
		if _, err = tx.ExecContext(ctx, tx.Rebind(`DELETE FROM grades WHERE subject = ?`), name); err != nil {
			return errors.Wrap(err, "deleting subject grades")
		}
		return nil
	})
}

func (repo *rosterRepository) SeedSubjects(ctx context.Context, names ...string) (int, error) {
	var inserted int
	err := database.WithTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		var cnt int
		if err := tx.GetContext(ctx, &cnt, `SELECT COUNT(*) FROM subjects`); err != nil {
			return errors.Wrap(err, "counting subjects")
		}
		if cnt > 0 {
			return nil
		}
		q := tx.Rebind(`INSERT INTO subjects (name) VALUES (?) ON CONFLICT (name) DO NOTHING`)
		for _, name := range names {
			res, err := tx.ExecContext(ctx, q, name)
			if err != nil {
				return errors.Wrap(err, "inserting subject")
			}
			n, err := rowsAffected(res, "inserting subject")
			if err != nil {
				return err
			}
			inserted += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}
