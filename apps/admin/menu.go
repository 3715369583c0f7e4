package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/term"

	"github.com/trezcool/perftracker/core"
	"github.com/trezcool/perftracker/core/roster"
)

var menuOptions = []string{
	"1. Add Student",
	"2. Add/Update Grade",
	"3. View Student Details",
	"4. Calculate Student Average",
	"5. List Students",
	"6. Delete Student",
	"7. List Subjects",
	"8. Add Subject",
	"9. Delete Subject",
	"10. Subject Topper",
	"11. Class Average",
	"0. Exit",
}

type styles struct {
	ok, fail, title string
}

func (cli *commandLine) styles() styles {
	r := lipgloss.NewRenderer(cli.out)
	return styles{
		ok:    r.NewStyle().Foreground(lipgloss.Color("2")).Render("✔"),
		fail:  r.NewStyle().Foreground(lipgloss.Color("1")).Render("✖"),
		title: r.NewStyle().Bold(true).Render("--- Student Performance Tracker (CLI) ---"),
	}
}

// interactive reports whether the menu reads from a terminal.
func (cli *commandLine) interactive() bool {
	f, ok := cli.in.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

type menuSession struct {
	cli     *commandLine
	scanner *bufio.Scanner
	st      styles
}

// ask prints label and reads one line. ok is false once the input is exhausted.
func (m *menuSession) ask(label string) (string, bool) {
	m.printf("%s", label)
	if !m.scanner.Scan() {
		return "", false
	}
	return m.scanner.Text(), true
}

func (m *menuSession) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(m.cli.out, format, args...)
}

func (m *menuSession) success(msg string) { m.printf("%s %s\n", m.st.ok, msg) }
func (m *menuSession) failure(msg string) { m.printf("%s %s\n", m.st.fail, msg) }

// storageFailure logs err; the menu keeps running.
func (m *menuSession) storageFailure(err error) {
	m.cli.logger.Error("menu operation failed", err)
	m.failure("Something went wrong, please retry.")
}

func (cli *commandLine) menu(ctx context.Context) error {
	m := &menuSession{cli: cli, scanner: bufio.NewScanner(cli.in), st: cli.styles()}
	if cli.interactive() {
		m.printf("Type an option number and press Enter.\n")
	}

	for {
		m.printf("\n%s\n%s\n", m.st.title, strings.Join(menuOptions, "\n"))
		choice, ok := m.ask("Choose an option: ")
		if !ok {
			m.printf("\nBye!\n")
			return nil
		}

		var cont bool
		switch core.CleanString(choice) {
		case "1":
			cont = m.addStudent(ctx)
		case "2":
			cont = m.addGrade(ctx)
		case "3":
			cont = m.viewStudent(ctx)
		case "4":
			cont = m.average(ctx)
		case "5":
			m.listStudents(ctx)
			cont = true
		case "6":
			cont = m.deleteStudent(ctx)
		case "7":
			m.listSubjects(ctx)
			cont = true
		case "8":
			cont = m.addSubject(ctx)
		case "9":
			cont = m.deleteSubject(ctx)
		case "10":
			cont = m.topper(ctx)
		case "11":
			cont = m.classAverage(ctx)
		case "0":
			m.printf("Bye!\n")
			return nil
		default:
			m.failure("Invalid option.")
			cont = true
		}
		if !cont {
			m.printf("\nBye!\n")
			return nil
		}
	}
}

func (m *menuSession) addStudent(ctx context.Context) bool {
	name, ok := m.ask("Name: ")
	if !ok {
		return false
	}
	roll, ok := m.ask("Roll Number: ")
	if !ok {
		return false
	}
	name, roll = core.CleanString(name), core.CleanString(roll)
	if name == "" || roll == "" {
		m.failure("Name and roll number are required.")
		return true
	}

	switch err := m.cli.svc.AddStudent(ctx, name, roll); errors.Cause(err) {
	case nil:
		m.success("Added.")
	case roster.ErrStudentExists:
		m.failure("Roll number already exists.")
	default:
		m.storageFailure(err)
	}
	return true
}

func (m *menuSession) addGrade(ctx context.Context) bool {
	subjects, err := m.cli.svc.Subjects(ctx)
	if err != nil {
		m.storageFailure(err)
		return true
	}

	roll, ok := m.ask("Roll Number: ")
	if !ok {
		return false
	}
	subject, ok := m.ask(fmt.Sprintf("Subject (%s): ", strings.Join(subjects, "/")))
	if !ok {
		return false
	}
	rawScore, ok := m.ask("Score (0-100): ")
	if !ok {
		return false
	}
	score, err := strconv.ParseFloat(core.CleanString(rawScore), 64)
	if err != nil {
		m.failure("Enter a valid number.")
		return true
	}

	roll, subject = core.CleanString(roll), core.CleanString(subject)
	if subject == "" {
		m.failure("Invalid input or student not found.")
		return true
	}
	if hint := suggestSubject(subject, subjects); hint != "" {
		m.printf("! %q is not a registered subject. Did you mean %q?\n", subject, hint)
	}

	switch err = m.cli.svc.AddOrUpdateGrade(ctx, roll, subject, score); errors.Cause(err) {
	case nil:
		m.success("Saved.")
	case roster.ErrStudentNotFound, roster.ErrScoreOutOfRange:
		m.failure("Invalid input or student not found.")
	default:
		m.storageFailure(err)
	}
	return true
}

// suggestSubject returns the registered subject closest to an unregistered name, if any is close enough.
func suggestSubject(name string, subjects []string) string {
	var best string
	bestRatio := 0.6
	for _, subj := range subjects {
		if subj == name {
			return ""
		}
		sm := difflib.NewMatcher(strings.Split(strings.ToLower(name), ""), strings.Split(strings.ToLower(subj), ""))
		if ratio := sm.Ratio(); ratio >= bestRatio {
			best, bestRatio = subj, ratio
		}
	}
	return best
}

func (m *menuSession) viewStudent(ctx context.Context) bool {
	roll, ok := m.ask("Roll Number: ")
	if !ok {
		return false
	}
	v, err := m.cli.svc.StudentView(ctx, core.CleanString(roll))
	switch errors.Cause(err) {
	case nil:
	case roster.ErrStudentNotFound:
		m.failure("Not found.")
		return true
	default:
		m.storageFailure(err)
		return true
	}

	m.printf("Name: %s | Roll: %s\n", v.Name, v.RollNumber)
	if len(v.Grades) == 0 {
		m.printf("Grades: (none)\n")
	} else {
		tw := m.newTable()
		tw.AppendHeader(table.Row{"Subject", "Score"})
		for _, subj := range v.Subjects() {
			tw.AppendRow(table.Row{subj, v.Grades[subj]})
		}
		m.printf("%s\n", tw.Render())
	}
	m.printf("Average: %s\n", formatAverage(v.Average().Valid, v.Average().Float64))
	return true
}

func (m *menuSession) average(ctx context.Context) bool {
	roll, ok := m.ask("Roll Number: ")
	if !ok {
		return false
	}
	avg, err := m.cli.svc.CalculateAverage(ctx, core.CleanString(roll))
	if err != nil {
		m.storageFailure(err)
		return true
	}
	if !avg.Valid {
		m.failure("Not found or no grades.")
		return true
	}
	m.printf("Average: %.2f\n", avg.Float64)
	return true
}

func (m *menuSession) listStudents(ctx context.Context) {
	views, err := m.cli.svc.ListStudents(ctx)
	if err != nil {
		m.storageFailure(err)
		return
	}
	if len(views) == 0 {
		m.printf("No students yet.\n")
		return
	}
	tw := m.newTable()
	tw.AppendHeader(table.Row{"Roll Number", "Name", "Average"})
	for _, v := range views {
		avg := v.Average()
		tw.AppendRow(table.Row{v.RollNumber, v.Name, formatAverage(avg.Valid, avg.Float64)})
	}
	m.printf("%s\n", tw.Render())
}

func (m *menuSession) deleteStudent(ctx context.Context) bool {
	roll, ok := m.ask("Roll Number: ")
	if !ok {
		return false
	}
	roll = core.CleanString(roll)
	switch err := m.cli.svc.DeleteStudent(ctx, roll); errors.Cause(err) {
	case nil:
		m.success(fmt.Sprintf("Student %s deleted.", roll))
	case roster.ErrStudentNotFound:
		m.failure("Not found.")
	default:
		m.storageFailure(err)
	}
	return true
}

func (m *menuSession) listSubjects(ctx context.Context) {
	subjects, err := m.cli.svc.Subjects(ctx)
	if err != nil {
		m.storageFailure(err)
		return
	}
	if len(subjects) == 0 {
		m.printf("No subjects yet.\n")
		return
	}
	tw := m.newTable()
	tw.AppendHeader(table.Row{"Subject"})
	for _, s := range subjects {
		tw.AppendRow(table.Row{s})
	}
	m.printf("%s\n", tw.Render())
}

func (m *menuSession) addSubject(ctx context.Context) bool {
	name, ok := m.ask("Subject Name: ")
	if !ok {
		return false
	}
	name = core.CleanString(name)
	switch err := m.cli.svc.AddSubject(ctx, name); errors.Cause(err) {
	case nil:
		m.success(fmt.Sprintf("Subject '%s' added.", name))
	case roster.ErrBlankSubject:
		m.failure("Subject name is required.")
	case roster.ErrSubjectExists:
		m.failure("Subject already exists.")
	default:
		m.storageFailure(err)
	}
	return true
}

func (m *menuSession) deleteSubject(ctx context.Context) bool {
	name, ok := m.ask("Subject Name: ")
	if !ok {
		return false
	}
	name = core.CleanString(name)
	switch err := m.cli.svc.DeleteSubject(ctx, name); errors.Cause(err) {
	case nil:
		m.success(fmt.Sprintf("Subject '%s' deleted.", name))
	case roster.ErrSubjectNotFound:
		m.failure("Not found.")
	default:
		m.storageFailure(err)
	}
	return true
}

func (m *menuSession) topper(ctx context.Context) bool {
	subject, ok := m.ask("Subject: ")
	if !ok {
		return false
	}
	subject = core.CleanString(subject)
	top, err := m.cli.svc.SubjectTopper(ctx, subject)
	if err != nil {
		m.storageFailure(err)
		return true
	}
	if top == nil {
		m.printf("No topper available for %s yet.\n", subject)
		return true
	}
	m.printf("Topper in %s: %s (%s) - %g\n", subject, top.Name, top.RollNumber, top.Score)
	return true
}

func (m *menuSession) classAverage(ctx context.Context) bool {
	subject, ok := m.ask("Subject: ")
	if !ok {
		return false
	}
	subject = core.CleanString(subject)
	avg, err := m.cli.svc.ClassAverageForSubject(ctx, subject)
	if err != nil {
		m.storageFailure(err)
		return true
	}
	if !avg.Valid {
		m.printf("No average available for %s yet.\n", subject)
		return true
	}
	m.printf("Class average in %s: %.2f\n", subject, avg.Float64)
	return true
}

func (m *menuSession) newTable() table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	return tw
}

func formatAverage(valid bool, avg float64) string {
	if !valid {
		return "-"
	}
	return fmt.Sprintf("%.2f", avg)
}
