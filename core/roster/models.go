package roster

import (
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/perftracker/core"
)

const (
	MinScore = 0.0
	MaxScore = 100.0
)

// DefaultSubjects are seeded by Service.Init into an empty subject set.
var DefaultSubjects = []string{"Math", "Science", "English"}

type Student struct {
	RollNumber string  `json:"roll_number" db:"roll_number"`
	Name       string  `json:"name" db:"name"`
	Grades     []Grade `json:"grades" db:"-"`
}

// Grade is a student's score in a subject.
// Subject holds the subject name by value, it does not reference a registered Subject.
type Grade struct {
	RollNumber string  `json:"-" db:"roll_number"`
	Subject    string  `json:"subject" db:"subject"`
	Score      float64 `json:"score" db:"score"`
}

// SubjectGrade is a Grade joined with the name of the Student owning it.
type SubjectGrade struct {
	RollNumber string  `db:"roll_number"`
	Name       string  `db:"name"`
	Score      float64 `db:"score"`
}

type Topper struct {
	RollNumber string  `json:"roll_number"`
	Name       string  `json:"name"`
	Score      float64 `json:"score"`
}

type SubjectSummary struct {
	Subject      string       `json:"subject"`
	Topper       *Topper      `json:"topper"`
	ClassAverage null.Float64 `json:"class_average"`
	GradeCount   int          `json:"grade_count"`
}

// View is a read-only snapshot of a Student and its scores keyed by subject.
type View struct {
	Name       string             `json:"name"`
	RollNumber string             `json:"roll_number"`
	Grades     map[string]float64 `json:"grades"`
}

func newView(s Student) View {
	v := View{
		Name:       s.Name,
		RollNumber: s.RollNumber,
		Grades:     make(map[string]float64, len(s.Grades)),
	}
	for _, g := range s.Grades {
		v.Grades[g.Subject] = g.Score
	}
	return v
}

// Subjects returns the graded subject names in ascending order.
func (v View) Subjects() []string {
	names := make([]string, 0, len(v.Grades))
	for name := range v.Grades {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Average is the arithmetic mean of all scores; invalid when there are no grades.
func (v View) Average() null.Float64 {
	if len(v.Grades) == 0 {
		return null.Float64{}
	}
	scores := make([]float64, 0, len(v.Grades))
	for _, subj := range v.Subjects() {
		scores = append(scores, v.Grades[subj])
	}
	return null.Float64From(mean(scores))
}

func (v View) Info() map[string]interface{} {
	return map[string]interface{}{
		"name":        v.Name,
		"roll_number": v.RollNumber,
		"grades":      v.Grades,
		"average":     v.Average(),
	}
}

func mean(vals []float64) float64 {
	var sum float64
	for _, val := range vals {
		sum += val
	}
	return sum / float64(len(vals))
}

// Forms used by the front ends. Fields are trimmed by Validate.

// NewStudent contains information needed to create a new Student.
type NewStudent struct {
	Name       string `form:"name" json:"name" validate:"notblank"`
	RollNumber string `form:"roll" json:"roll_number" validate:"notblank"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.RollNumber = core.CleanString(ns.RollNumber)
	return validate.Struct(ns)
}

// NewGrade contains information needed to add or update a Grade.
type NewGrade struct {
	RollNumber string  `form:"roll" json:"roll_number" validate:"notblank"`
	Subject    string  `form:"subject" json:"subject" validate:"notblank"`
	Score      float64 `form:"score" json:"score"`
}

func (ng *NewGrade) Validate(validate *validator.Validate) error {
	ng.RollNumber = core.CleanString(ng.RollNumber)
	ng.Subject = core.CleanString(ng.Subject)
	return validate.Struct(ng)
}

type NewSubject struct {
	Name string `form:"name" json:"name" validate:"notblank"`
}

func (ns *NewSubject) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	return validate.Struct(ns)
}
