package roster

import (
	"context"
	"sort"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/perftracker/core"
)

var (
	// errors
	ErrStudentNotFound = errors.New("student not found")
	ErrStudentExists   = errors.New("roll number already exists")
	ErrSubjectNotFound = errors.New("subject not found")
	ErrSubjectExists   = errors.New("subject already exists")
	ErrBlankSubject    = errors.New("subject name is required")
	ErrScoreOutOfRange = errors.New("score must be between 0 and 100")
)

// IsNotFound reports whether err means a student or subject does not exist.
func IsNotFound(err error) bool {
	switch errors.Cause(err) {
	case ErrStudentNotFound, ErrSubjectNotFound:
		return true
	}
	return false
}

// IsConflict reports whether err means a student or subject key is already taken.
func IsConflict(err error) bool {
	switch errors.Cause(err) {
	case ErrStudentExists, ErrSubjectExists:
		return true
	}
	return false
}

type (
	// Repository is the durable record store behind the Service.
	// Every mutating method must commit its change atomically or leave prior state untouched.
	Repository interface {
		// CreateStudent fails with ErrStudentExists when the roll number is taken.
		CreateStudent(ctx context.Context, student Student) error
		// GetStudent returns the student and its grades, or ErrStudentNotFound.
		GetStudent(ctx context.Context, rollNumber string) (Student, error)
		// QueryStudents returns all students with their grades.
		QueryStudents(ctx context.Context) ([]Student, error)
		// DeleteStudent removes the student and all its grades, or fails with ErrStudentNotFound.
		DeleteStudent(ctx context.Context, rollNumber string) error
		// UpsertGrade creates the grade or overwrites the score of the existing
		// (RollNumber, Subject) grade. Fails with ErrStudentNotFound.
		UpsertGrade(ctx context.Context, grade Grade) error
		// QuerySubjectGrades returns every grade recorded under subject, joined with the owner's name.
		QuerySubjectGrades(ctx context.Context, subject string) ([]SubjectGrade, error)
		// CreateSubject fails with ErrSubjectExists when the name is taken.
		CreateSubject(ctx context.Context, name string) error
		QuerySubjects(ctx context.Context) ([]string, error)
		// DeleteSubject deletes every grade whose subject equals name, then the subject itself.
		// Fails with ErrSubjectNotFound.
		DeleteSubject(ctx context.Context, name string) error
		// SeedSubjects inserts names only when no subject exists yet and returns how many were inserted.
		SeedSubjects(ctx context.Context, names ...string) (int, error)
	}

	// Service is the roster manager: the only owner of student, subject and grade state.
	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Init seeds DefaultSubjects when there are no subjects yet. It is safe to call on every startup.
func (svc *Service) Init(ctx context.Context) error {
	if _, err := svc.repo.SeedSubjects(ctx, DefaultSubjects...); err != nil {
		return errors.Wrap(err, "seeding default subjects")
	}
	return nil
}

// AddStudent creates a student without grades. Both inputs are trimmed.
// Callers must reject an empty name or roll number beforehand.
func (svc *Service) AddStudent(ctx context.Context, name, rollNumber string) error {
	return svc.repo.CreateStudent(ctx, Student{
		Name:       core.CleanString(name),
		RollNumber: core.CleanString(rollNumber),
	})
}

// AddOrUpdateGrade sets the student's score for subject, overwriting any previous score.
// subject is not required to be a registered subject.
func (svc *Service) AddOrUpdateGrade(ctx context.Context, rollNumber, subject string, score float64) error {
	if _, err := svc.repo.GetStudent(ctx, rollNumber); err != nil {
		return err
	}
	if !(score >= MinScore && score <= MaxScore) {
		return ErrScoreOutOfRange
	}
	return svc.repo.UpsertGrade(ctx, Grade{RollNumber: rollNumber, Subject: subject, Score: score})
}

func (svc *Service) StudentView(ctx context.Context, rollNumber string) (View, error) {
	s, err := svc.repo.GetStudent(ctx, rollNumber)
	if err != nil {
		return View{}, err
	}
	return newView(s), nil
}

// CalculateAverage is invalid when the student does not exist or has no grades.
func (svc *Service) CalculateAverage(ctx context.Context, rollNumber string) (null.Float64, error) {
	v, err := svc.StudentView(ctx, rollNumber)
	if err != nil {
		if errors.Cause(err) == ErrStudentNotFound {
			return null.Float64{}, nil
		}
		return null.Float64{}, err
	}
	return v.Average(), nil
}

// ListStudents returns all students ordered by roll number (byte-wise string order).
func (svc *Service) ListStudents(ctx context.Context) ([]View, error) {
	students, err := svc.repo.QueryStudents(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(students, func(i, j int) bool { return students[i].RollNumber < students[j].RollNumber })

	views := make([]View, 0, len(students))
	for _, s := range students {
		views = append(views, newView(s))
	}
	return views, nil
}

func (svc *Service) DeleteStudent(ctx context.Context, rollNumber string) error {
	return svc.repo.DeleteStudent(ctx, rollNumber)
}

// AddSubject registers a subject. name is trimmed and must not be blank.
func (svc *Service) AddSubject(ctx context.Context, name string) error {
	name = core.CleanString(name)
	if name == "" {
		return ErrBlankSubject
	}
	return svc.repo.CreateSubject(ctx, name)
}

// Subjects returns all registered subject names in ascending order.
func (svc *Service) Subjects(ctx context.Context) ([]string, error) {
	names, err := svc.repo.QuerySubjects(ctx)
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// DeleteSubject removes the subject and every grade recorded under that name, for all students.
func (svc *Service) DeleteSubject(ctx context.Context, name string) error {
	return svc.repo.DeleteSubject(ctx, name)
}

// SubjectTopper returns the best grade recorded under subject, or nil when there is none.
// Ties on the score go to the lowest roll number.
func (svc *Service) SubjectTopper(ctx context.Context, subject string) (*Topper, error) {
	grades, err := svc.repo.QuerySubjectGrades(ctx, subject)
	if err != nil {
		return nil, err
	}
	return topper(grades), nil
}

// ClassAverageForSubject is the mean of every score recorded under subject; invalid when there is none.
func (svc *Service) ClassAverageForSubject(ctx context.Context, subject string) (null.Float64, error) {
	grades, err := svc.repo.QuerySubjectGrades(ctx, subject)
	if err != nil {
		return null.Float64{}, err
	}
	return classAverage(grades), nil
}

// Summary gathers the topper and class average of subject from a single read.
func (svc *Service) Summary(ctx context.Context, subject string) (SubjectSummary, error) {
	grades, err := svc.repo.QuerySubjectGrades(ctx, subject)
	if err != nil {
		return SubjectSummary{}, err
	}
	return SubjectSummary{
		Subject:      subject,
		Topper:       topper(grades),
		ClassAverage: classAverage(grades),
		GradeCount:   len(grades),
	}, nil
}

func topper(grades []SubjectGrade) *Topper {
	if len(grades) == 0 {
		return nil
	}
	best := grades[0]
	for _, g := range grades[1:] {
		if g.Score > best.Score || (g.Score == best.Score && g.RollNumber < best.RollNumber) {
			best = g
		}
	}
	return &Topper{RollNumber: best.RollNumber, Name: best.Name, Score: best.Score}
}

func classAverage(grades []SubjectGrade) null.Float64 {
	if len(grades) == 0 {
		return null.Float64{}
	}
	scores := make([]float64, 0, len(grades))
	for _, g := range grades {
		scores = append(scores, g.Score)
	}
	return null.Float64From(mean(scores))
}
