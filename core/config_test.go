package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewConfig_defaults(t *testing.T) {
	t.Setenv("ENV", "test")

	conf := NewConfig()
	assert.Equal(t, "TEST", conf.Env)
	assert.True(t, conf.TestMode)
	assert.True(t, conf.Debug)
	assert.Equal(t, "Student Performance Tracker", conf.AppName)
	assert.Equal(t, ":8000", conf.Server.Address)
	assert.Equal(t, 10*time.Second, conf.Server.ShutdownTimeout)
	assert.Equal(t, "sqlite", conf.Database.Engine)
	assert.True(t, conf.Database.IsSQLite())
	assert.Equal(t, "perftracker.db", conf.Database.Path)
	assert.Equal(t, "localhost:5432", conf.Database.Address())
}

func TestNewConfig_env(t *testing.T) {
	t.Setenv("ENV", "qa")
	t.Setenv("QA_DEBUG", "false")
	t.Setenv("QA_DATABASE_ENGINE", "Postgres")
	t.Setenv("QA_DATABASE_HOST", "db.internal")
	t.Setenv("QA_SERVER_SHUTDOWNTIMEOUT", "3s")

	conf := NewConfig()
	assert.Equal(t, "QA", conf.Env)
	assert.False(t, conf.TestMode)
	assert.False(t, conf.Debug)
	assert.Equal(t, "postgres", conf.Database.Engine)
	assert.False(t, conf.Database.IsSQLite())
	assert.Equal(t, "db.internal:5432", conf.Database.Address())
	assert.Equal(t, 3*time.Second, conf.Server.ShutdownTimeout)
	assert.Equal(t, "env=QA build=dev debug=false db=postgres", conf.String())
}

func TestCleanString(t *testing.T) {
	assert.Equal(t, "Math", CleanString("  Math\t"))
	assert.Equal(t, "math", CleanString(" MATH ", true))
	assert.Equal(t, "", CleanString("   "))
}

func TestDBOrdering_String(t *testing.T) {
	assert.Equal(t, "roll_number ASC", DBOrdering{Field: "roll_number", Ascending: true}.String())
	assert.Equal(t, "name DESC", DBOrdering{Field: "name"}.String())
}
