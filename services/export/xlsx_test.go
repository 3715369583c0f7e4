package exportsvc

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/perftracker/core/roster"
	inmemdb "github.com/trezcool/perftracker/storage/database/inmem"
	"github.com/trezcool/perftracker/testutil"
)

func setup(t *testing.T) *roster.Service {
	db, err := inmemdb.Open()
	require.NoError(t, err)
	repo := inmemdb.NewRosterRepository(db)

	testutil.CreateSubjects(t, repo, "Math", "Science")
	testutil.CreateStudent(t, repo, "Bob", "B2",
		roster.Grade{Subject: "Math", Score: 95},
		roster.Grade{Subject: "Latin", Score: 60},
	)
	testutil.CreateStudent(t, repo, "Alice", "A1",
		roster.Grade{Subject: "Math", Score: 80},
		roster.Grade{Subject: "Science", Score: 90},
	)
	testutil.CreateStudent(t, repo, "Carl", "C3")
	return roster.NewService(repo)
}

func TestWriteRoster(t *testing.T) {
	svc := setup(t)

	var buf bytes.Buffer
	require.NoError(t, WriteRoster(context.Background(), svc, &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{StudentsSheet, SubjectsSheet}, f.GetSheetList())

	rows, err := f.GetRows(StudentsSheet)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Roll Number", "Name", "Math", "Science", "Latin", "Average"},
		{"A1", "Alice", "80", "90", "", "85"},
		{"B2", "Bob", "95", "", "60", "77.5"},
		{"C3", "Carl"},
	}, rows)

	rows, err = f.GetRows(SubjectsSheet)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Subject", "Topper", "Topper Roll Number", "Top Score", "Class Average", "Grades"},
		{"Math", "Bob", "B2", "95", "87.5", "2"},
		{"Science", "Alice", "A1", "90", "90", "1"},
	}, rows)
}

func TestSaveRoster(t *testing.T) {
	svc := setup(t)
	path := filepath.Join(t.TempDir(), "roster.xlsx")

	require.NoError(t, SaveRoster(context.Background(), svc, path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	val, err := f.GetCellValue(StudentsSheet, "B2")
	require.NoError(t, err)
	assert.Equal(t, "Alice", val)
}

type failingSource struct{ *roster.Service }

func (failingSource) Subjects(context.Context) ([]string, error) {
	return nil, errors.New("db is gone")
}

func TestWriteRoster_sourceError(t *testing.T) {
	var buf bytes.Buffer
	err := WriteRoster(context.Background(), failingSource{setup(t)}, &buf)
	require.Error(t, err)
	assert.Equal(t, "db is gone", errors.Cause(err).Error())
	assert.Zero(t, buf.Len())
}
