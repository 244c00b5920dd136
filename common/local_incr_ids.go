package common

import (
	"database/sql"

	"emperror.dev/errors"
)

func init() {
	RegisterMigrations(SQLMigration(1, "core_infra", LocalIDsSchema))
}

// LocalIDsSchema is exported so tests of packages that generate guild
// local ids can initialize a bare store without the migration engine.
const LocalIDsSchema = `
CREATE TABLE IF NOT EXISTS local_guild_ids (
	guild_id BIGINT NOT NULL,
	key TEXT NOT NULL,

	last BIGINT NOT NULL,
	last_updated TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),

	PRIMARY KEY(guild_id, key)
);
`

// GenGuildIncrID creates or increments a per guild id counter, used for
// guild local sequences such as modlog case numbers. Pass the enclosing
// transaction when the generated id is written in the same operation, so
// a rolled back write doesn't burn numbers observably out of order.
func GenGuildIncrID(tx *sql.Tx, guildID int64, key string) (int64, error) {
	const query = `INSERT INTO local_guild_ids (guild_id, key, last, last_updated)
	VALUES ($1, $2, 1, now())
	ON CONFLICT (guild_id, key)
	DO UPDATE SET last = local_guild_ids.last + 1, last_updated = now()
	RETURNING last;`

	var row *sql.Row
	if tx == nil {
		row = PQ.QueryRow(query, guildID, key)
	} else {
		row = tx.QueryRow(query, guildID, key)
	}

	var newID int64
	err := row.Scan(&newID)
	if err != nil {
		return 0, errors.WithStackIf(err)
	}

	return newID, nil
}
