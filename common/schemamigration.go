package common

import (
	"database/sql"
	"fmt"
	"sort"
	"time"

	"emperror.dev/errors"
)

// The store records the schema version it is at in schema_migrations,
// one row per applied migration. The engine runs at process start,
// before any request is served: a store behind the running code is
// migrated forward, a store ahead of it is fatal.

const schemaMigrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version BIGINT PRIMARY KEY,
	name TEXT NOT NULL,
	applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
);
`

// Migration is a single versioned schema change. Apply runs inside its
// own transaction; if it errors the transaction rolls back and the store
// stays at the prior version.
type Migration struct {
	Version int
	Name    string
	Apply   func(tx *sql.Tx) error
}

// SQLMigration wraps plain DDL statements into a Migration. Statements
// should use IF NOT EXISTS forms where available so that re-running an
// already-applied additive migration is a no-op rather than an error.
func SQLMigration(version int, name string, statements ...string) Migration {
	return Migration{
		Version: version,
		Name:    name,
		Apply: func(tx *sql.Tx) error {
			for i, stmt := range statements {
				if _, err := tx.Exec(stmt); err != nil {
					return errors.WrapIff(err, "statement %d", i)
				}
			}
			return nil
		},
	}
}

var registeredMigrations []Migration

// RegisterMigrations is called by plugins at init time with their slice
// of the global, strictly version-ordered migration history.
func RegisterMigrations(migrations ...Migration) {
	registeredMigrations = append(registeredMigrations, migrations...)
}

// RunMigrations brings the store to the version the running code
// expects. It's guarded by a redis lock so only one node of the fleet
// performs schema work at a time. Any failure is returned as a
// *MigrationFailedError and must halt startup.
func RunMigrations() error {
	if confNoSchemaInit.GetBool() {
		logger.Warn("Skipping schema migrations (warden.no_schema_init set)")
		return nil
	}

	if err := BlockingLockRedisKey("schema_migrations_lock", time.Minute*10, 60*60); err != nil {
		return err
	}
	defer UnlockRedisKey("schema_migrations_lock")

	if _, err := PQ.Exec(schemaMigrationsTable); err != nil {
		return errors.WrapIf(err, "failed creating schema_migrations")
	}

	ordered, err := orderedMigrations()
	if err != nil {
		return err
	}

	current, err := SchemaVersion()
	if err != nil {
		return err
	}

	latest := 0
	if len(ordered) > 0 {
		latest = ordered[len(ordered)-1].Version
	}

	if current > latest {
		return fmt.Errorf("store is at schema version %d but this build only knows up to %d, refusing to run against a newer schema", current, latest)
	}

	for _, m := range ordered {
		if m.Version <= current {
			continue
		}

		err := SqlTX(func(tx *sql.Tx) error {
			if err := m.Apply(tx); err != nil {
				return err
			}

			_, err := tx.Exec("INSERT INTO schema_migrations (version, name) VALUES ($1, $2)", m.Version, m.Name)
			return err
		})
		if err != nil {
			return &MigrationFailedError{Version: m.Version, Name: m.Name, Cause: err}
		}

		logger.Infof("Applied schema migration %d: %s", m.Version, m.Name)
	}

	return nil
}

func orderedMigrations() ([]Migration, error) {
	ordered := make([]Migration, len(registeredMigrations))
	copy(ordered, registeredMigrations)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Version < ordered[j].Version
	})

	for i, m := range ordered {
		if m.Version != i+1 {
			return nil, fmt.Errorf("migration versions must be contiguous from 1, got %d at position %d (%s)", m.Version, i, m.Name)
		}
	}

	return ordered, nil
}

// SchemaVersion returns the highest applied migration version, 0 for an
// empty store.
func SchemaVersion() (int, error) {
	var v int
	err := PQ.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&v)
	return v, err
}

// TableRebuild describes a shadow-table rebuild: build the target state
// under a temporary name, copy over the rows that satisfy the new
// constraints, then atomically swap it into place. Used whenever a
// constraint becomes stricter or a column set changes incompatibly.
type TableRebuild struct {
	Table string

	// CreateShadow creates <Table>_rebuild with the target schema,
	// including any constraints and PK.
	CreateShadow string

	// Columns copied from the old table, in SQL list form.
	CopyColumns string

	// Predicate selecting rows that satisfy the new constraints. Empty
	// means every row is copied.
	CopyWhere string
}

// RebuildTable performs the rebuild inside tx and returns how many rows
// were excluded for not satisfying the new constraints. Excluding rows is
// deliberate, documented lossy-on-invalid-data policy: the count is
// surfaced to operators through the returned value and a warning log,
// never hidden.
func RebuildTable(tx *sql.Tx, r TableRebuild) (excluded int64, err error) {
	shadow := r.Table + "_rebuild"

	var total int64
	if err = tx.QueryRow("SELECT COUNT(*) FROM " + r.Table).Scan(&total); err != nil {
		return 0, errors.WrapIff(err, "counting %s", r.Table)
	}

	if _, err = tx.Exec(r.CreateShadow); err != nil {
		return 0, errors.WrapIff(err, "creating shadow table for %s", r.Table)
	}

	copySQL := fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s", shadow, r.CopyColumns, r.CopyColumns, r.Table)
	if r.CopyWhere != "" {
		copySQL += " WHERE " + r.CopyWhere
	}

	res, err := tx.Exec(copySQL)
	if err != nil {
		return 0, errors.WrapIff(err, "copying rows into shadow table for %s", r.Table)
	}

	copied, err := res.RowsAffected()
	if err != nil {
		return 0, errors.WithStackIf(err)
	}

	if _, err = tx.Exec("DROP TABLE " + r.Table); err != nil {
		return 0, errors.WrapIff(err, "dropping %s", r.Table)
	}

	if _, err = tx.Exec(fmt.Sprintf("ALTER TABLE %s RENAME TO %s", shadow, r.Table)); err != nil {
		return 0, errors.WrapIff(err, "renaming shadow table into %s", r.Table)
	}

	excluded = total - copied
	if excluded > 0 {
		logger.Warnf("Rebuild of %s excluded %d rows not satisfying the new constraints", r.Table, excluded)
	}

	return excluded, nil
}

// TableExists reports whether a table is present in the public schema.
func TableExists(table string) (b bool, err error) {
	const query = `
SELECT EXISTS
(
	SELECT 1
	FROM information_schema.tables
	WHERE table_schema = 'public'
	AND table_name = $1
);`

	err = PQ.QueryRow(query, table).Scan(&b)
	return b, err
}

func ColumnExists(table, column string) (b bool, err error) {
	const query = `
SELECT EXISTS
(
	SELECT 1
	FROM information_schema.columns
	WHERE table_name=$1 and column_name=$2
);`

	err = PQ.QueryRow(query, table, column).Scan(&b)
	return b, err
}

func IndexExists(table, index string) (b bool, err error) {
	const query = `
SELECT EXISTS
(
	SELECT 1
FROM
    pg_class t,
    pg_class i,
    pg_index ix,
    pg_attribute a
WHERE
    t.oid = ix.indrelid
    AND i.oid = ix.indexrelid
    AND a.attrelid = t.oid
    AND a.attnum = ANY(ix.indkey)
    AND t.relkind = 'r'
    AND t.relname = $1
    AND i.relname = $2
);`

	err = PQ.QueryRow(query, table, index).Scan(&b)
	return b, err
}
