package exportsvc

import (
	"context"
	"io"
	"sort"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/perftracker/core/roster"
)

const (
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	StudentsSheet = "Students"
	SubjectsSheet = "Subjects"
)

// Source is the read side of roster.Service used to build a workbook.
type Source interface {
	ListStudents(ctx context.Context) ([]roster.View, error)
	Subjects(ctx context.Context) ([]string, error)
	Summary(ctx context.Context, subject string) (roster.SubjectSummary, error)
}

// WriteRoster writes an xlsx workbook with a "Students" sheet (one column per subject, then the
// average) and a "Subjects" sheet (topper and class average of every registered subject).
func WriteRoster(ctx context.Context, src Source, w io.Writer) error {
	f, err := Roster(ctx, src)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if err = f.Write(w); err != nil {
		return errors.Wrap(err, "writing workbook")
	}
	return nil
}

// SaveRoster writes the roster workbook to path.
func SaveRoster(ctx context.Context, src Source, path string) error {
	f, err := Roster(ctx, src)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if err = f.SaveAs(path); err != nil {
		return errors.Wrap(err, "saving workbook")
	}
	return nil
}

// Roster builds the roster workbook. Callers must Close it.
func Roster(ctx context.Context, src Source) (*excelize.File, error) {
	var (
		views     []roster.View
		subjects  []string
		summaries []roster.SubjectSummary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		views, err = src.ListStudents(gctx)
		return err
	})
	g.Go(func() (err error) {
		if subjects, err = src.Subjects(gctx); err != nil {
			return err
		}
		summaries = make([]roster.SubjectSummary, 0, len(subjects))
		for _, subj := range subjects {
			sum, err := src.Summary(gctx, subj)
			if err != nil {
				return err
			}
			summaries = append(summaries, sum)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "loading roster")
	}

	f := excelize.NewFile()
	if err := writeStudents(f, columns(subjects, views), views); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := writeSubjects(f, summaries); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

// columns are the registered subjects followed by graded-but-unregistered ones, each group sorted.
func columns(subjects []string, views []roster.View) []string {
	seen := make(map[string]bool, len(subjects))
	cols := make([]string, 0, len(subjects))
	for _, s := range subjects {
		seen[s] = true
		cols = append(cols, s)
	}
	var extra []string
	for _, v := range views {
		for subj := range v.Grades {
			if !seen[subj] {
				seen[subj] = true
				extra = append(extra, subj)
			}
		}
	}
	sort.Strings(extra)
	return append(cols, extra...)
}

func writeStudents(f *excelize.File, cols []string, views []roster.View) error {
	// NewFile creates "Sheet1"
	if err := f.SetSheetName("Sheet1", StudentsSheet); err != nil {
		return errors.Wrap(err, "naming students sheet")
	}

	header := []interface{}{"Roll Number", "Name"}
	for _, c := range cols {
		header = append(header, c)
	}
	header = append(header, "Average")
	if err := f.SetSheetRow(StudentsSheet, "A1", &header); err != nil {
		return errors.Wrap(err, "writing students header")
	}

	for i, v := range views {
		row := []interface{}{v.RollNumber, v.Name}
		for _, c := range cols {
			if score, ok := v.Grades[c]; ok {
				row = append(row, score)
			} else {
				row = append(row, nil)
			}
		}
		if avg := v.Average(); avg.Valid {
			row = append(row, avg.Float64)
		} else {
			row = append(row, nil)
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.Wrap(err, "writing student row")
		}
		if err = f.SetSheetRow(StudentsSheet, cell, &row); err != nil {
			return errors.Wrap(err, "writing student row")
		}
	}
	return boldHeader(f, StudentsSheet, len(header))
}

func writeSubjects(f *excelize.File, summaries []roster.SubjectSummary) error {
	if _, err := f.NewSheet(SubjectsSheet); err != nil {
		return errors.Wrap(err, "creating subjects sheet")
	}

	header := []interface{}{"Subject", "Topper", "Topper Roll Number", "Top Score", "Class Average", "Grades"}
	if err := f.SetSheetRow(SubjectsSheet, "A1", &header); err != nil {
		return errors.Wrap(err, "writing subjects header")
	}

	for i, sum := range summaries {
		row := []interface{}{sum.Subject, nil, nil, nil, nil, sum.GradeCount}
		if sum.Topper != nil {
			row[1], row[2], row[3] = sum.Topper.Name, sum.Topper.RollNumber, sum.Topper.Score
		}
		if sum.ClassAverage.Valid {
			row[4] = sum.ClassAverage.Float64
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.Wrap(err, "writing subject row")
		}
		if err = f.SetSheetRow(SubjectsSheet, cell, &row); err != nil {
			return errors.Wrap(err, "writing subject row")
		}
	}
	return boldHeader(f, SubjectsSheet, len(header))
}

func boldHeader(f *excelize.File, sheet string, ncols int) error {
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return errors.Wrap(err, "creating header style")
	}
	last, err := excelize.CoordinatesToCellName(ncols, 1)
	if err != nil {
		return errors.Wrap(err, "styling header")
	}
	return errors.Wrap(f.SetCellStyle(sheet, "A1", last, style), "styling header")
}
