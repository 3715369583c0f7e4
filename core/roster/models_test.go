package roster

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/perftracker/core"
)

func TestView_Average(t *testing.T) {
	tests := []struct {
		name   string
		grades map[string]float64
		want   null.Float64
	}{
		{name: "no grades", grades: map[string]float64{}},
		{name: "one grade", grades: map[string]float64{"Math": 42.5}, want: null.Float64From(42.5)},
		{name: "many grades", grades: map[string]float64{"Math": 80, "Science": 90}, want: null.Float64From(85)},
		{name: "zero scores", grades: map[string]float64{"Math": 0, "Art": 0}, want: null.Float64From(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := View{Name: "Alice", RollNumber: "A1", Grades: tt.grades}
			assert.Equal(t, tt.want, v.Average())
		})
	}
}

func TestView_Subjects(t *testing.T) {
	v := newView(Student{
		RollNumber: "A1",
		Name:       "Alice",
		Grades: []Grade{
			{Subject: "Science", Score: 90},
			{Subject: "English", Score: 60},
			{Subject: "Math", Score: 80},
		},
	})
	assert.Equal(t, []string{"English", "Math", "Science"}, v.Subjects())
	assert.Equal(t, map[string]interface{}{
		"name":        "Alice",
		"roll_number": "A1",
		"grades":      map[string]float64{"English": 60, "Math": 80, "Science": 90},
		"average":     null.Float64From(230.0 / 3),
	}, v.Info())
}

func Test_topper(t *testing.T) {
	assert.Nil(t, topper(nil))

	got := topper([]SubjectGrade{
		{RollNumber: "C3", Name: "Carol", Score: 70},
		{RollNumber: "B2", Name: "Bob", Score: 99},
		{RollNumber: "A1", Name: "Alice", Score: 99},
	})
	assert.Equal(t, &Topper{RollNumber: "A1", Name: "Alice", Score: 99}, got)
}

func TestNewStudent_Validate(t *testing.T) {
	validate, translator := core.NewValidator()

	ns := NewStudent{Name: "  Alice  ", RollNumber: "\tA1 "}
	require.NoError(t, ns.Validate(validate))
	assert.Equal(t, NewStudent{Name: "Alice", RollNumber: "A1"}, ns)

	ns = NewStudent{Name: "   ", RollNumber: ""}
	err := ns.Validate(validate)
	require.Error(t, err)
	assert.IsType(t, validator.ValidationErrors{}, err)
	assert.Equal(t, map[string]string{
		"name": "name is required",
		"roll": "roll is required",
	}, core.TranslateErrors(err, translator))
}

func TestNewGrade_Validate(t *testing.T) {
	validate, translator := core.NewValidator()

	ng := NewGrade{RollNumber: " A1", Subject: " Math ", Score: 101}
	require.NoError(t, ng.Validate(validate)) // range is checked by the Service
	assert.Equal(t, "Math", ng.Subject)

	ng = NewGrade{RollNumber: "A1"}
	err := ng.Validate(validate)
	assert.Equal(t, map[string]string{"subject": "subject is required"}, core.TranslateErrors(err, translator))
}

func TestNewSubject_Validate(t *testing.T) {
	validate, _ := core.NewValidator()

	assert.Error(t, (&NewSubject{Name: " "}).Validate(validate))

	ns := NewSubject{Name: " History "}
	require.NoError(t, ns.Validate(validate))
	assert.Equal(t, "History", ns.Name)
}
