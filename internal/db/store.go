package db

import (
	"context"
)

// Open connects to Postgres when databaseURL is set, to the SQLite file at
// sqlitePath otherwise, and ensures the schema.
func Open(ctx context.Context, databaseURL, sqlitePath string) (Store, error) {
	if databaseURL != "" {
		pg, err := ConnectPostgres(ctx, databaseURL)
		if err != nil {
			return nil, err
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, err
		}
		return pg, nil
	}

	sqlite, err := Connect(sqlitePath)
	if err != nil {
		return nil, err
	}
	if err := sqlite.EnsureSchema(ctx); err != nil {
		sqlite.Close()
		return nil, err
	}
	return sqlite, nil
}

var (
	_ Store = (*DB)(nil)
	_ Store = (*PostgresDB)(nil)
)
