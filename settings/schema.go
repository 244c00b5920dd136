package settings

import (
	"database/sql"

	"github.com/wardenbot/warden/common"
)

var dbSchemas = []string{`
CREATE TABLE IF NOT EXISTS guild_settings (
	guild_id BIGINT PRIMARY KEY,

	mute_role BIGINT,
	mod_role BIGINT,
	admin_role BIGINT,
	mod_log_channel BIGINT,

	timezone TEXT NOT NULL DEFAULT 'UTC',
	is_blocked BOOLEAN NOT NULL DEFAULT false
);
`, `
CREATE TABLE IF NOT EXISTS user_settings (
	user_id BIGINT PRIMARY KEY,

	is_bot_vip BOOLEAN NOT NULL DEFAULT false,
	is_network_admin BOOLEAN NOT NULL DEFAULT false,

	timezone TEXT,
	timezone_is_public BOOLEAN NOT NULL DEFAULT false,

	is_blocked BOOLEAN NOT NULL DEFAULT false,
	anon BOOLEAN NOT NULL DEFAULT false
);
`, `
CREATE TABLE IF NOT EXISTS member_settings (
	user_id BIGINT NOT NULL REFERENCES user_settings(user_id)
		ON UPDATE CASCADE ON DELETE CASCADE,
	guild_id BIGINT NOT NULL REFERENCES guild_settings(guild_id)
		ON UPDATE CASCADE ON DELETE CASCADE,

	is_blocked BOOLEAN NOT NULL DEFAULT false,
	is_mod BOOLEAN NOT NULL DEFAULT false,
	is_admin BOOLEAN NOT NULL DEFAULT false,

	PRIMARY KEY (user_id, guild_id)
);
`, `
CREATE TABLE IF NOT EXISTS guild_prefixes (
	guild_id BIGINT NOT NULL REFERENCES guild_settings(guild_id)
		ON UPDATE CASCADE ON DELETE CASCADE,
	prefix TEXT NOT NULL,

	PRIMARY KEY (guild_id, prefix)
);
`}

// prefixLegalityExpr is the store side of the prefix legality rule. It
// has to agree with ValidatePrefix exactly: the check constraint is the
// safety net, the validator is the user facing layer. chr(96) and
// chr(39) are backtick and single quote, kept out of the literal to
// avoid quoting noise.
const prefixLegalityExpr = `(
	length(prefix) < 16
	AND position(':' in prefix) = 0
	AND prefix !~ '<.*>'
	AND position('\' in prefix) = 0
	AND position(chr(96) in prefix) = 0
	AND position('~' in prefix) = 0
	AND position('|' in prefix) = 0
	AND position(chr(39) in prefix) = 0
	AND position('"' in prefix) = 0
	AND prefix NOT LIKE '/%'
	AND position('> ' in prefix) = 0
)`

// DBSchemas returns the base table definitions. Tests of packages whose
// tables carry foreign keys into the settings tables use this to set up
// a bare store without running the migration engine.
func DBSchemas() []string {
	return dbSchemas
}

var dbMigrations = []common.Migration{
	common.SQLMigration(2, "settings_base", dbSchemas...),
	common.SQLMigration(7, "guild_feature_flags", `
ALTER TABLE guild_settings ADD COLUMN IF NOT EXISTS feature_flags BIGINT NOT NULL DEFAULT 0;
`),
	{
		Version: 8,
		Name:    "prefix_legality",
		Apply:   migratePrefixLegality,
	},
}

// migratePrefixLegality narrows guild_prefixes with the legality check
// constraint via a shadow table rebuild. Stored prefixes that predate the
// rule and don't satisfy it are excluded from the copy; the engine logs
// the count so the loss is visible to operators rather than silent.
func migratePrefixLegality(tx *sql.Tx) error {
	_, err := common.RebuildTable(tx, common.TableRebuild{
		Table: "guild_prefixes",
		CreateShadow: `
CREATE TABLE guild_prefixes_rebuild (
	guild_id BIGINT NOT NULL REFERENCES guild_settings(guild_id)
		ON UPDATE CASCADE ON DELETE CASCADE,
	prefix TEXT NOT NULL,

	PRIMARY KEY (guild_id, prefix),
	CONSTRAINT prefix_is_legal CHECK ` + prefixLegalityExpr + `
);
`,
		CopyColumns: "guild_id, prefix",
		CopyWhere:   prefixLegalityExpr,
	})

	return err
}
