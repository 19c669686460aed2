package schema

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/pkg/errors"
)

// DatabasePersister persists schema snapshots in a SQL database.
//
// Each class is stored as a row of the classes table, with its clusters and
// properties encoded as JSON documents.
type DatabasePersister struct {
	db     *sql.DB
	prefix string // Table name prefix, e.g. "main."
}

// NewDatabasePersister creates a new DatabasePersister using the given
// database handle, creating its table if needed.
func NewDatabasePersister(ctx context.Context, db *sql.DB) (*DatabasePersister, error) {
	return NewDatabasePersisterWithPrefix(ctx, db, "")
}

// NewDatabasePersisterWithPrefix is like NewDatabasePersister, but prefixes
// the table name, e.g. with an attached schema name.
func NewDatabasePersisterWithPrefix(ctx context.Context, db *sql.DB, prefix string) (*DatabasePersister, error) {
	p := &DatabasePersister{db: db, prefix: prefix}
	query := `
CREATE TABLE IF NOT EXISTS ` + prefix + `classes (
  name TEXT PRIMARY KEY,
  clusters TEXT NOT NULL,
  properties TEXT NOT NULL
)`
	if _, err := db.ExecContext(ctx, query); err != nil {
		return nil, errors.Wrap(err, "failed to create classes table")
	}
	return p, nil
}

// Load the stored classes.
func (p *DatabasePersister) Load(ctx context.Context) (Snapshot, error) {
	snapshot := Snapshot{}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return snapshot, errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, "SELECT name, clusters, properties FROM "+p.prefix+"classes ORDER BY name")
	if err != nil {
		return snapshot, errors.Wrap(err, "failed to query classes table")
	}
	defer rows.Close()

	for rows.Next() {
		var info ClassInfo
		var clusters, properties string
		if err := rows.Scan(&info.Name, &clusters, &properties); err != nil {
			return snapshot, errors.Wrap(err, "failed to fetch class row")
		}
		if err := json.Unmarshal([]byte(clusters), &info.Clusters); err != nil {
			return snapshot, errors.Wrapf(err, "class %s: bad clusters", info.Name)
		}
		if err := json.Unmarshal([]byte(properties), &info.Properties); err != nil {
			return snapshot, errors.Wrapf(err, "class %s: bad properties", info.Name)
		}
		snapshot.Classes = append(snapshot.Classes, info)
	}
	if err := rows.Err(); err != nil {
		return snapshot, errors.Wrap(err, "result set failure")
	}

	return snapshot, nil
}

// Save replaces the stored classes in a single transaction.
func (p *DatabasePersister) Save(ctx context.Context, snapshot Snapshot) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+p.prefix+"classes"); err != nil {
		tx.Rollback()
		return errors.Wrap(err, "failed to delete existing classes")
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO "+p.prefix+"classes(name, clusters, properties) VALUES (?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return errors.Wrap(err, "failed to prepare insert statement")
	}
	defer stmt.Close()

	for _, info := range snapshot.Classes {
		clusters, err := json.Marshal(info.Clusters)
		if err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "class %s: encode clusters", info.Name)
		}
		properties, err := json.Marshal(info.Properties)
		if err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "class %s: encode properties", info.Name)
		}
		if _, err := stmt.ExecContext(ctx, info.Name, string(clusters), string(properties)); err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "failed to insert class %s", info.Name)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}

	return nil
}
