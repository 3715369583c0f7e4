package echoweb

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/perftracker/core"
	"github.com/trezcool/perftracker/core/roster"
	exportsvc "github.com/trezcool/perftracker/services/export"
)

// route names, for echo.Reverse
const (
	routeIndex          = "index"
	routeStudents       = "students"
	routeStudentDetails = "student_details"
	routeAddStudent     = "add_student"
	routeAddGrade       = "add_grade"
	routeAddSubject     = "add_subject"
)

type pageHandlers struct {
	svc      *roster.Service
	validate *validator.Validate
	logger   core.Logger
	appName  string
	sessions sessions.Store
}

func (h pageHandlers) register(e *echo.Echo) {
	e.GET("/", h.index).Name = routeIndex
	e.GET("/students", h.students).Name = routeStudents
	e.GET("/student/:roll", h.studentDetails).Name = routeStudentDetails
	e.GET("/add-student", h.addStudentForm).Name = routeAddStudent
	e.POST("/add-student", h.addStudent)
	e.GET("/add-grade", h.addGradeForm).Name = routeAddGrade
	e.POST("/add-grade", h.addGrade)
	e.GET("/average/:roll", h.average)
	e.POST("/delete-student/:roll", h.deleteStudent)
	e.GET("/add-subject", h.addSubjectForm).Name = routeAddSubject
	e.POST("/add-subject", h.addSubject)
	e.POST("/delete-subject/:name", h.deleteSubject)
	e.GET("/report/topper/:subject", h.topper)
	e.GET("/report/class-average/:subject", h.classAverage)
	e.GET("/export.xlsx", h.export)
}

// param returns the decoded path parameter.
// echo routes on URL.RawPath when the request has one, leaving the params escaped;
// otherwise they come from the already decoded URL.Path.
func param(ctx echo.Context, name string) string {
	val := ctx.Param(name)
	if ctx.Request().URL.RawPath == "" {
		return val
	}
	if unescaped, err := url.PathUnescape(val); err == nil {
		return unescaped
	}
	return val
}

func (h pageHandlers) render(ctx echo.Context, name string, data pageData) error {
	flashes, err := popFlashes(h.sessions, ctx)
	if err != nil {
		return err
	}
	data.AppName = h.appName
	data.Flashes = flashes
	return ctx.Render(http.StatusOK, name, data)
}

// redirect flashes message then redirects to the named route.
func (h pageHandlers) redirect(ctx echo.Context, category, message, route string, params ...interface{}) error {
	if err := addFlash(h.sessions, ctx, category, message); err != nil {
		return err
	}
	return ctx.Redirect(http.StatusSeeOther, ctx.Echo().Reverse(route, params...))
}

// dashboard renders the index page, optionally with one topper or class average slot filled.
func (h pageHandlers) dashboard(ctx echo.Context, fill func(data *pageData)) error {
	c := ctx.Request().Context()
	students, err := h.svc.ListStudents(c)
	if err != nil {
		return errors.Wrap(err, "listing students")
	}
	subjects, err := h.svc.Subjects(c)
	if err != nil {
		return errors.Wrap(err, "listing subjects")
	}
	data := pageData{
		Students:      students,
		Subjects:      subjects,
		TopperResults: make(map[string]string, len(subjects)),
		AvgResults:    make(map[string]string, len(subjects)),
	}
	if fill != nil {
		fill(&data)
	}
	return h.render(ctx, "index", data)
}

func (h pageHandlers) index(ctx echo.Context) error {
	return h.dashboard(ctx, nil)
}

func (h pageHandlers) students(ctx echo.Context) error {
	students, err := h.svc.ListStudents(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing students")
	}
	return h.render(ctx, "students", pageData{Title: "Students", Students: students})
}

func (h pageHandlers) studentDetails(ctx echo.Context) error {
	v, err := h.svc.StudentView(ctx.Request().Context(), param(ctx, "roll"))
	if err != nil {
		if errors.Cause(err) == roster.ErrStudentNotFound {
			return h.redirect(ctx, flashDanger, "Student not found.", routeStudents)
		}
		return errors.Wrap(err, "getting student")
	}
	return h.render(ctx, "student_details", pageData{Title: v.Name, Student: v})
}

func (h pageHandlers) addStudentForm(ctx echo.Context) error {
	return h.render(ctx, "add_student", pageData{Title: "Add Student"})
}

func (h pageHandlers) addStudent(ctx echo.Context) error {
	var form roster.NewStudent
	if err := ctx.Bind(&form); err != nil {
		return err
	}
	if err := form.Validate(h.validate); err != nil {
		return h.redirect(ctx, flashWarning, "Name and roll number are required.", routeAddStudent)
	}

	err := h.svc.AddStudent(ctx.Request().Context(), form.Name, form.RollNumber)
	switch errors.Cause(err) {
	case nil:
		h.logger.Info("student added", map[string]interface{}{"roll_number": form.RollNumber})
		return h.redirect(ctx, flashSuccess, "Student added.", routeStudents)
	case roster.ErrStudentExists:
		return h.redirect(ctx, flashDanger, "Roll number already exists.", routeAddStudent)
	default:
		return errors.Wrap(err, "adding student")
	}
}

func (h pageHandlers) addGradeForm(ctx echo.Context) error {
	c := ctx.Request().Context()
	students, err := h.svc.ListStudents(c)
	if err != nil {
		return errors.Wrap(err, "listing students")
	}
	subjects, err := h.svc.Subjects(c)
	if err != nil {
		return errors.Wrap(err, "listing subjects")
	}
	return h.render(ctx, "add_grade", pageData{Title: "Add Grade", Students: students, Subjects: subjects})
}

func (h pageHandlers) addGrade(ctx echo.Context) error {
	score, err := strconv.ParseFloat(core.CleanString(ctx.FormValue("score")), 64)
	if err != nil {
		return h.redirect(ctx, flashWarning, "Enter a valid score.", routeAddGrade)
	}
	form := roster.NewGrade{
		RollNumber: ctx.FormValue("roll"),
		Subject:    ctx.FormValue("subject"),
		Score:      score,
	}
	if err = form.Validate(h.validate); err != nil {
		return h.redirect(ctx, flashDanger, "Invalid input or student not found.", routeAddGrade)
	}

	err = h.svc.AddOrUpdateGrade(ctx.Request().Context(), form.RollNumber, form.Subject, form.Score)
	switch errors.Cause(err) {
	case nil:
		return h.redirect(ctx, flashSuccess, "Grade saved.", routeStudentDetails, url.PathEscape(form.RollNumber))
	case roster.ErrStudentNotFound, roster.ErrScoreOutOfRange:
		return h.redirect(ctx, flashDanger, "Invalid input or student not found.", routeAddGrade)
	default:
		return errors.Wrap(err, "saving grade")
	}
}

func (h pageHandlers) average(ctx echo.Context) error {
	roll := param(ctx, "roll")
	avg, err := h.svc.CalculateAverage(ctx.Request().Context(), roll)
	if err != nil {
		return errors.Wrap(err, "calculating average")
	}
	if !avg.Valid {
		return h.redirect(ctx, flashWarning, "Student not found or no grades.", routeStudents)
	}
	return h.redirect(ctx, flashInfo, fmt.Sprintf("Average for %s is %.2f", roll, avg.Float64), routeStudentDetails, url.PathEscape(roll))
}

func (h pageHandlers) deleteStudent(ctx echo.Context) error {
	roll := param(ctx, "roll")
	err := h.svc.DeleteStudent(ctx.Request().Context(), roll)
	switch errors.Cause(err) {
	case nil:
		h.logger.Info("student deleted", map[string]interface{}{"roll_number": roll})
		return h.redirect(ctx, flashSuccess, fmt.Sprintf("Student %s deleted successfully.", roll), routeStudents)
	case roster.ErrStudentNotFound:
		return h.redirect(ctx, flashDanger, "Student not found.", routeStudents)
	default:
		return errors.Wrap(err, "deleting student")
	}
}

func (h pageHandlers) addSubjectForm(ctx echo.Context) error {
	return h.render(ctx, "add_subject", pageData{Title: "Add Subject"})
}

func (h pageHandlers) addSubject(ctx echo.Context) error {
	var form roster.NewSubject
	if err := ctx.Bind(&form); err != nil {
		return err
	}
	if err := form.Validate(h.validate); err != nil {
		return h.redirect(ctx, flashWarning, "Subject name is required.", routeAddSubject)
	}

	err := h.svc.AddSubject(ctx.Request().Context(), form.Name)
	switch errors.Cause(err) {
	case nil:
		return h.redirect(ctx, flashSuccess, fmt.Sprintf("Subject '%s' added successfully.", form.Name), routeIndex)
	case roster.ErrSubjectExists:
		return h.redirect(ctx, flashDanger, "Subject already exists.", routeAddSubject)
	case roster.ErrBlankSubject:
		return h.redirect(ctx, flashWarning, "Subject name is required.", routeAddSubject)
	default:
		return errors.Wrap(err, "adding subject")
	}
}

func (h pageHandlers) deleteSubject(ctx echo.Context) error {
	name := param(ctx, "name")
	err := h.svc.DeleteSubject(ctx.Request().Context(), name)
	switch errors.Cause(err) {
	case nil:
		return h.redirect(ctx, flashSuccess, fmt.Sprintf("Subject '%s' deleted successfully.", name), routeIndex)
	case roster.ErrSubjectNotFound:
		return h.redirect(ctx, flashDanger, "Subject not found.", routeIndex)
	default:
		return errors.Wrap(err, "deleting subject")
	}
}

func (h pageHandlers) topper(ctx echo.Context) error {
	subject := param(ctx, "subject")
	top, err := h.svc.SubjectTopper(ctx.Request().Context(), subject)
	if err != nil {
		return errors.Wrap(err, "getting topper")
	}
	return h.dashboard(ctx, func(data *pageData) {
		if top != nil {
			data.TopperResults[subject] = fmt.Sprintf("Topper in %s: %s (%s) - %g", subject, top.Name, top.RollNumber, top.Score)
		} else {
			data.TopperResults[subject] = fmt.Sprintf("No topper available for %s yet.", subject)
		}
	})
}

func (h pageHandlers) classAverage(ctx echo.Context) error {
	subject := param(ctx, "subject")
	avg, err := h.svc.ClassAverageForSubject(ctx.Request().Context(), subject)
	if err != nil {
		return errors.Wrap(err, "getting class average")
	}
	return h.dashboard(ctx, func(data *pageData) {
		if avg.Valid {
			data.AvgResults[subject] = fmt.Sprintf("Class average in %s: %.2f", subject, avg.Float64)
		} else {
			data.AvgResults[subject] = fmt.Sprintf("No average available for %s yet.", subject)
		}
	})
}

func (h pageHandlers) export(ctx echo.Context) error {
	f, err := exportsvc.Roster(ctx.Request().Context(), h.svc)
	if err != nil {
		return errors.Wrap(err, "exporting roster")
	}
	defer func() { _ = f.Close() }()

	resp := ctx.Response()
	resp.Header().Set(echo.HeaderContentType, exportsvc.ContentType)
	resp.Header().Set(echo.HeaderContentDisposition, `attachment; filename="roster.xlsx"`)
	resp.WriteHeader(http.StatusOK)
	return errors.Wrap(f.Write(resp), "writing workbook")
}
