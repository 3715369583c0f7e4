package inmemdb

import (
	"sync"
)

type (
	// DB is a process-local store for the roster.Repository, used by tests and the "memory" engine.
	DB struct {
		sync.RWMutex
		students map[string]*studentRow
		subjects map[string]struct{}
	}

	studentRow struct {
		name   string
		grades map[string]float64 // {subject: score}
	}
)

func Open() (*DB, error) {
	db := &DB{
		students: make(map[string]*studentRow),
		subjects: make(map[string]struct{}),
	}
	return db, nil
}
