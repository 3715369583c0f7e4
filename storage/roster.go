package storage

import (
	"context"

	"github.com/trezcool/perftracker/core"
	"github.com/trezcool/perftracker/core/roster"
	"github.com/trezcool/perftracker/storage/database"
	inmemdb "github.com/trezcool/perftracker/storage/database/inmem"
	"github.com/trezcool/perftracker/storage/database/sqlrepo"
)

// OpenRoster sets up the roster.Repository of the configured engine. SQL databases are
// created (postgres), pinged and migrated first. The returned func releases the store.
func OpenRoster(ctx context.Context, conf core.DatabaseConfig) (roster.Repository, func() error, error) {
	if conf.Engine == database.EngineMemory {
		db, err := inmemdb.Open()
		if err != nil {
			return nil, nil, err
		}
		return inmemdb.NewRosterRepository(db), func() error { return nil }, nil
	}

	if err := database.CreateIfNotExist(ctx, conf); err != nil {
		return nil, nil, err
	}
	db, err := database.Open(conf)
	if err != nil {
		return nil, nil, err
	}
	if err = database.Ping(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	if err = database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return sqlrepo.NewRosterRepository(db), db.Close, nil
}
